package data

import "github.com/khaledhikmat/vs-steer/model"

type IService interface {
	NewError(err interface{}) error
	NewProcessorStats(stats model.ProcessorStats) error
	NewFramerStats(stats model.FramerStats) error
	NewConsumerStats(stats model.ConsumerStats) error

	RetrieveProcessorStats() ([]model.ProcessorStats, error)
}
