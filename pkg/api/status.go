package api

import (
	"github.com/gofrs/uuid"

	"gitlab.com/justnurik/luxq/pkg/scheduler"
	"gitlab.com/justnurik/luxq/pkg/sensor"
)

type QueueStatus struct {
	Name string `json:"name"`
	Len  int    `json:"len"`
	Cap  int    `json:"cap"`
}

type Status struct {
	BootID uuid.UUID          `json:"boot_id"`
	Kernel scheduler.Snapshot `json:"kernel"`
	Queue  QueueStatus        `json:"queue"`
}

// SampleEvent is one line of the /watch stream.
type SampleEvent struct {
	Seq uint64        `json:"seq"`
	Lux sensor.Sample `json:"lux"`
}

type StatusService interface {
	Status() *Status
	// Subscribe returns the feed of rendered samples and the function that ends it.
	Subscribe() (<-chan sensor.Sample, func())
}
