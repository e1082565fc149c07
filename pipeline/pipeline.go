// Package pipeline chains ingestion, feature transformation and model
// training. Only ingestion lives in this module; the downstream stages are
// collaborators reached through Transformer and Trainer.
package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/teranos/mlproject/dataset"
	"github.com/teranos/mlproject/errors"
	"github.com/teranos/mlproject/logger"
)

// Features is the output of a transformation stage.
type Features struct {
	Train [][]float64
	Test  [][]float64
	// Aux locates whatever the transformer persisted alongside the arrays,
	// such as a fitted preprocessor or a column manifest.
	Aux dataset.Handle
}

// Ingester produces the train and test partitions. *ingestion.Stage implements it.
type Ingester interface {
	Run() (train, test dataset.Handle, err error)
}

// Transformer turns the two partitions into feature arrays.
type Transformer interface {
	Transform(train, test dataset.Handle) (*Features, error)
}

// Trainer fits a model and returns its evaluation metric.
type Trainer interface {
	Train(train, test [][]float64) (float64, error)
}

// TrainerFunc adapts a function to Trainer.
type TrainerFunc func(train, test [][]float64) (float64, error)

// Train calls f.
func (f TrainerFunc) Train(train, test [][]float64) (float64, error) {
	return f(train, test)
}

// Pipeline runs the three stages in order.
type Pipeline struct {
	ingester    Ingester
	transformer Transformer
	trainer     Trainer
	log         *zap.SugaredLogger
}

// New builds a pipeline. A nil log uses the "pipeline" component logger.
func New(ingester Ingester, transformer Transformer, trainer Trainer, log *zap.SugaredLogger) *Pipeline {
	if log == nil {
		log = logger.ComponentLogger("pipeline")
	}
	return &Pipeline{
		ingester:    ingester,
		transformer: transformer,
		trainer:     trainer,
		log:         log,
	}
}

// Run executes ingestion, transformation and training and returns the
// trainer's metric. Ingestion failures are returned as they are; downstream
// failures are wrapped with the stage that produced them.
func (p *Pipeline) Run() (float64, error) {
	if p.ingester == nil || p.transformer == nil || p.trainer == nil {
		return 0, errors.New("pipeline requires an ingester, a transformer and a trainer")
	}
	start := time.Now()

	train, test, err := p.ingester.Run()
	if err != nil {
		p.log.Errorw("Ingestion failed",
			logger.FieldStage, "ingestion",
			logger.FieldErrorKind, errors.KindOf(err),
			logger.FieldError, err.Error(),
		)
		return 0, err
	}
	p.log.Infow("Ingestion finished",
		logger.FieldTrainPath, train.String(),
		logger.FieldTestPath, test.String(),
	)

	features, err := p.transformer.Transform(train, test)
	if err != nil {
		return 0, errors.Wrap(err, "transform features")
	}
	if features == nil {
		return 0, errors.New("transform features: transformer returned no features")
	}
	p.log.Infow("Transformation finished",
		logger.FieldTrainRows, len(features.Train),
		logger.FieldTestRows, len(features.Test),
		logger.FieldPath, features.Aux.String(),
	)

	metric, err := p.trainer.Train(features.Train, features.Test)
	if err != nil {
		return 0, errors.Wrap(err, "train model")
	}
	p.log.Infow("Training finished",
		"metric", metric,
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return metric, nil
}
