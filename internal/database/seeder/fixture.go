package seeder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"staff-match/internal/domain/entity"
	"staff-match/internal/repository"

	"gopkg.in/yaml.v3"
)

// Fixture is a YAML document of jobs and workers:
//
//	jobs:
//	  - id: job-1
//	    title: Forklift operator
//	    status: open
//	workers:
//	  - id: w-1
//	    name: Dewi
//	    status: available
type Fixture struct {
	Label   string           `yaml:"-"`
	Jobs    []*entity.Job    `yaml:"jobs"`
	Workers []*entity.Worker `yaml:"workers"`
}

func LoadFixture(path string) (Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fixture{}, err
	}
	defer f.Close()

	fx, err := DecodeFixture(f)
	if err != nil {
		return Fixture{}, fmt.Errorf("%s: %w", path, err)
	}
	fx.Label = path
	return fx, nil
}

func DecodeFixture(r io.Reader) (Fixture, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Fixture{}, err
	}
	var fx Fixture
	if len(bytes.TrimSpace(raw)) == 0 {
		return fx, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && !errors.Is(err, io.EOF) {
		return Fixture{}, err
	}
	return fx, nil
}

func (f Fixture) Name() string {
	if f.Label != "" {
		return "fixture " + f.Label
	}
	return "fixture"
}

func (f Fixture) Entities() []entity.Entity {
	out := make([]entity.Entity, 0, len(f.Jobs)+len(f.Workers))
	for _, j := range f.Jobs {
		if j != nil {
			out = append(out, j)
		}
	}
	for _, w := range f.Workers {
		if w != nil {
			out = append(out, w)
		}
	}
	return out
}

// Run validates every entity before writing any of them.
func (f Fixture) Run(ctx context.Context, w repository.EntityWriter) error {
	ents := f.Entities()
	for _, e := range ents {
		if err := entity.Validate(e); err != nil {
			return fmt.Errorf("%s %s: %w", e.Kind(), e.EntityID(), err)
		}
	}
	for _, e := range ents {
		if err := w.UpsertEntity(ctx, e); err != nil {
			return fmt.Errorf("%s %s: %w", e.Kind(), e.EntityID(), err)
		}
	}
	return nil
}
