package mesh

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/zmdl/internal/logger"
	"github.com/Faultbox/zmdl/internal/model"
	"github.com/Faultbox/zmdl/pkg/scene"
)

// DefaultSubmesh names the submesh of an object without material slots.
const DefaultSubmesh = "default"

// blendRelative prefixes paths relative to the scene file.
const blendRelative = "//"

// partition creates one submesh per used material and maps each material
// slot to its submesh name. Slots that are empty or whose material has no
// users map to "".
func partition(object string, slots []*scene.Material, baseDir string) (map[string]*model.Submesh, []string) {
	submeshes := make(map[string]*model.Submesh)
	if len(slots) == 0 {
		submeshes[DefaultSubmesh] = &model.Submesh{Indices: [][3]int{}}
		return submeshes, nil
	}

	keys := make([]string, len(slots))
	for i, mat := range slots {
		if mat == nil || mat.Users <= 0 {
			continue
		}
		keys[i] = mat.Name
		if _, ok := submeshes[mat.Name]; ok {
			continue
		}

		sm := &model.Submesh{Indices: [][3]int{}}
		for _, role := range model.Roles {
			path := ResolveTexture(mat, role, baseDir)
			if path == "" {
				logger.Warn("unresolved texture role",
					zap.String("object", object),
					zap.String("material", mat.Name),
					zap.String("role", role))
			}
			sm.Textures.Set(role, path)
		}
		submeshes[mat.Name] = sm
	}
	return submeshes, keys
}

// ResolveTexture returns the absolute image path of the first texture slot
// whose name contains role, or "" when none does.
func ResolveTexture(mat *scene.Material, role, baseDir string) string {
	for _, slot := range mat.TextureSlots {
		if strings.Contains(slot.Name, role) {
			return AbsPath(slot.Image, baseDir)
		}
	}
	return ""
}

// AbsPath resolves an image path against the scene directory. Both
// "//"-prefixed and plain relative paths are scene-relative.
func AbsPath(path, baseDir string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, blendRelative) {
		path = filepath.Join(baseDir, filepath.FromSlash(path[len(blendRelative):]))
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, filepath.FromSlash(path))
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
