package animation

import (
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/zmdl/internal/logger"
	"github.com/Faultbox/zmdl/internal/model"
	"github.com/Faultbox/zmdl/pkg/scene"
)

// BoneLookup resolves bone names to skeleton ids.
type BoneLookup interface {
	Lookup(name string) (int, bool)
}

// key is one sample of a single-component curve.
type key struct {
	frame float64
	value float64
}

// channel groups the component curves of one animated property.
type channel struct {
	bone       string
	prop       Property
	components [][]key
}

// Reconstruct rebuilds the per-bone tracks of action. Every animated bone
// must exist in bones.
//
// Components of a property are merged per frame. A component without a key
// at a frame another component has is linearly interpolated between its
// neighbouring keys, or held constant beyond its first and last key. Frames
// are stored relative to the start of the action's frame range.
func Reconstruct(action scene.ActionSource, bones BoneLookup) (*model.Animation, error) {
	name := action.ActionName()
	start, end := action.FrameRange()

	channels, err := collect(action, bones)
	if err != nil {
		return nil, err
	}

	anim := &model.Animation{
		Length: end - start,
		Tracks: make(map[string]*model.Track),
	}
	for _, ch := range channels {
		for c, keys := range ch.components {
			if len(keys) == 0 {
				return nil, errors.Wrapf(model.ErrDataIntegrity,
					"action %q: bone %q %s has no keyframes for component %d", name, ch.bone, ch.prop, c)
			}
		}

		frames := ch.frames()
		samples := make([]model.Keyframe, 0, len(frames))
		for _, f := range frames {
			data := make([]float64, len(ch.components))
			for c, keys := range ch.components {
				v, exact := sample(keys, f)
				if !exact {
					logger.Debug("filled missing keyframe",
						zap.String("action", name),
						zap.String("bone", ch.bone),
						zap.Stringer("property", ch.prop),
						zap.Int("component", c),
						zap.Float64("frame", f))
				}
				data[c] = v
			}
			samples = append(samples, model.Keyframe{Frame: f - start, Data: data})
		}

		track := anim.Tracks[ch.bone]
		if track == nil {
			id, _ := bones.Lookup(ch.bone)
			track = &model.Track{ID: id}
			anim.Tracks[ch.bone] = track
		}
		switch ch.prop {
		case Rotation:
			track.Rotation = samples
		case Translation:
			track.Translation = samples
		case Scale:
			track.Scale = samples
		}
	}
	return anim, nil
}

// collect sorts the action's curves into channels in first-seen order.
func collect(action scene.ActionSource, bones BoneLookup) ([]*channel, error) {
	name := action.ActionName()
	type chanKey struct {
		bone string
		prop Property
	}
	index := make(map[chanKey]*channel)
	var channels []*channel

	for _, c := range action.Curves() {
		bone, prop, err := ParsePath(c.DataPath)
		if err != nil {
			return nil, errors.Wrapf(err, "action %q", name)
		}
		if _, ok := bones.Lookup(bone); !ok {
			return nil, errors.Wrapf(model.ErrDataIntegrity,
				"action %q: curve %q animates bone %q missing from the skeleton", name, c.DataPath, bone)
		}
		if c.ArrayIndex < 0 || c.ArrayIndex >= prop.Channels() {
			return nil, errors.Wrapf(model.ErrDataIntegrity,
				"action %q: curve %q index %d out of range for %s", name, c.DataPath, c.ArrayIndex, prop)
		}

		k := chanKey{bone, prop}
		ch := index[k]
		if ch == nil {
			ch = &channel{bone: bone, prop: prop, components: make([][]key, prop.Channels())}
			index[k] = ch
			channels = append(channels, ch)
		}
		if ch.components[c.ArrayIndex] != nil {
			return nil, errors.Wrapf(model.ErrDataIntegrity,
				"action %q: duplicate curve %q[%d]", name, c.DataPath, c.ArrayIndex)
		}
		ch.components[c.ArrayIndex] = sortedKeys(c.Keyframes)
	}
	return channels, nil
}

func sortedKeys(points [][2]float64) []key {
	keys := make([]key, len(points))
	for i, p := range points {
		keys[i] = key{frame: p[0], value: p[1]}
	}
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].frame < keys[j].frame })
	return keys
}

// frames returns the union of all component key frames in ascending order.
func (ch *channel) frames() []float64 {
	seen := make(map[float64]bool)
	var frames []float64
	for _, keys := range ch.components {
		for _, k := range keys {
			if !seen[k.frame] {
				seen[k.frame] = true
				frames = append(frames, k.frame)
			}
		}
	}
	sort.Float64s(frames)
	return frames
}

// sample evaluates sorted keys at frame. exact reports whether a key sits
// on frame.
func sample(keys []key, frame float64) (value float64, exact bool) {
	if len(keys) == 0 {
		return 0, false
	}

	// Find surrounding keyframes
	i := sort.Search(len(keys), func(i int) bool { return keys[i].frame >= frame })
	if i < len(keys) && keys[i].frame == frame {
		return keys[i].value, true
	}
	if i == 0 {
		return keys[0].value, false
	}
	if i == len(keys) {
		return keys[len(keys)-1].value, false
	}

	k0, k1 := keys[i-1], keys[i]
	t := (frame - k0.frame) / (k1.frame - k0.frame)
	return k0.value + t*(k1.value-k0.value), false
}
