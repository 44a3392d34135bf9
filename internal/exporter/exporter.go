// Package exporter assembles model documents from a scene snapshot.
package exporter

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/zmdl/internal/animation"
	"github.com/Faultbox/zmdl/internal/config"
	"github.com/Faultbox/zmdl/internal/logger"
	"github.com/Faultbox/zmdl/internal/mesh"
	"github.com/Faultbox/zmdl/internal/model"
	"github.com/Faultbox/zmdl/internal/skeleton"
	"github.com/Faultbox/zmdl/pkg/scene"
)

// Options controls an export.
type Options struct {
	// SelectedOnly restricts the export to selected objects.
	SelectedOnly bool
	// Encode controls the written document.
	Encode model.EncodeOptions
}

// OptionsFromConfig derives export options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	enc := model.DefaultEncodeOptions()
	enc.Indent = cfg.Export.Indent
	if cfg.Export.FixHierarchySpelling {
		enc.HierarchyKey = model.HierarchyKeyFixed
	}
	return Options{
		SelectedOnly: cfg.Export.SelectedOnly,
		Encode:       enc,
	}
}

// Summary counts what an export produced.
type Summary struct {
	Objects    int
	Vertices   int
	Triangles  int
	Bones      int
	Animations int
}

// Exporter turns scenes into model documents. It holds no state between
// calls, so one Exporter may serve concurrent exports.
type Exporter struct {
	opts Options
}

// New creates an exporter.
func New(opts Options) *Exporter {
	return &Exporter{opts: opts}
}

// Export builds the document for every exportable object of s, in scene
// order. The first failing object aborts the export.
func (e *Exporter) Export(ctx context.Context, s *scene.Scene) (model.Document, error) {
	doc, _, err := e.export(ctx, s)
	return doc, err
}

// ExportFile exports s and writes the document to path. Nothing is written
// unless the whole export succeeds.
func (e *Exporter) ExportFile(ctx context.Context, s *scene.Scene, path string) (Summary, error) {
	doc, sum, err := e.export(ctx, s)
	if err != nil {
		return Summary{}, err
	}
	if err := model.WriteFile(path, doc, e.opts.Encode); err != nil {
		return Summary{}, err
	}
	logger.Info("wrote model document",
		zap.String("path", path),
		zap.Int("objects", sum.Objects))
	return sum, nil
}

func (e *Exporter) export(ctx context.Context, s *scene.Scene) (model.Document, Summary, error) {
	var sum Summary
	if err := s.Validate(); err != nil {
		return nil, sum, errors.Wrapf(model.ErrDataIntegrity, "%v", err)
	}

	doc := make(model.Document)
	for _, o := range s.Exportable(e.opts.SelectedOnly) {
		if err := ctx.Err(); err != nil {
			return nil, sum, errors.Wrap(err, "export cancelled")
		}

		m, stats, err := ExportObject(s, o)
		if err != nil {
			return nil, sum, errors.Wrapf(err, "object %q", o.Name)
		}
		doc[o.Name] = m

		sum.Objects++
		sum.Vertices += len(m.Vertices)
		sum.Triangles += stats.Triangles
		sum.Bones += len(m.Skeleton)
		sum.Animations += len(m.Animations)

		logger.Info("exported object",
			zap.String("object", o.Name),
			zap.Int("vertices", len(m.Vertices)),
			zap.Int("triangles", stats.Triangles),
			zap.Int("submeshes", len(m.Submeshes)),
			zap.Int("bones", len(m.Skeleton)),
			zap.Int("animations", len(m.Animations)))
	}
	return doc, sum, nil
}

// ExportObject builds the model of one mesh object. A deforming armature
// is converted first so its id table serves both animation and skinning.
func ExportObject(s *scene.Scene, o *scene.Object) (*model.Model, *mesh.Result, error) {
	src, err := s.MeshSource(o)
	if err != nil {
		return nil, nil, errors.Wrapf(model.ErrDataIntegrity, "%v", err)
	}
	arm, err := s.ArmatureSource(o)
	if err != nil {
		return nil, nil, errors.Wrapf(model.ErrDataIntegrity, "%v", err)
	}

	m := &model.Model{}
	var bones mesh.BoneLookup
	if arm != nil {
		ids := skeleton.NewIDs()
		m.Skeleton, m.Hierarchy, err = skeleton.Build(arm, ids)
		if err != nil {
			return nil, nil, err
		}

		m.Animations = make(map[string]*model.Animation)
		for _, action := range s.ActionsFor(arm) {
			anim, err := animation.Reconstruct(action, ids)
			if err != nil {
				return nil, nil, err
			}
			m.Animations[action.ActionName()] = anim
		}
		bones = ids
	}

	res, err := mesh.Build(src, mesh.Options{Object: o.Name, BaseDir: s.BaseDir, Bones: bones})
	if err != nil {
		return nil, nil, err
	}
	m.Vertices = res.Vertices
	m.Submeshes = res.Submeshes
	return m, res, nil
}
