package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/zmdl/internal/config"
)

const triangleScene = `
objects:
  - {name: Tri, type: MESH, users: 1, selected: true, mesh: TriMesh}
  - {name: Other, type: MESH, users: 1, mesh: TriMesh}
meshes:
  - name: TriMesh
    uv_layers: [{name: UVMap}]
    vertices:
      - {co: [0, 0, 0], normal: [0, 0, 1]}
      - {co: [1, 0, 0], normal: [0, 0, 1]}
      - {co: [0, 1, 0], normal: [0, 0, 1]}
    polygons:
      - loops:
          - {vertex: 0, uv: [[0, 0]]}
          - {vertex: 1, uv: [[1, 0]]}
          - {vertex: 2, uv: [[0, 1]]}
`

func newTestServer() *httptest.Server {
	return httptest.NewServer(New(config.Default()).Handler())
}

func decodeObjects(t *testing.T, resp *http.Response) map[string]json.RawMessage {
	t.Helper()
	var out map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestExportScene(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	tests := []struct {
		name    string
		query   string
		objects int
	}{
		{"all objects", "", 2},
		{"selected only", "?selected=1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/export"+tt.query, "application/yaml", strings.NewReader(triangleScene))
			if err != nil {
				t.Fatalf("POST /export: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			if got := len(decodeObjects(t, resp)); got != tt.objects {
				t.Errorf("objects = %d, want %d", got, tt.objects)
			}
		})
	}
}

func TestExportSceneErrors(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	noUV := strings.NewReplacer("    uv_layers: [{name: UVMap}]\n", "", ", uv: [[0, 0]]", "", ", uv: [[1, 0]]", "", ", uv: [[0, 1]]", "").
		Replace(triangleScene)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed", "objects: [", http.StatusBadRequest},
		{"dangling mesh", "objects: [{name: A, type: MESH, users: 1, mesh: Nope}]", http.StatusBadRequest},
		{"no active UV", noUV, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/export", "application/yaml", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST /export: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var e errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
				t.Errorf("missing error body: %v", err)
			}
		})
	}
}

func TestExportWrongMethod(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/export")
	if err != nil {
		t.Fatalf("GET /export: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestExportGLTF(t *testing.T) {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0, 1}, {1, 1}, {0, 0}})
	doc.Meshes = []*gltf.Mesh{{Name: "Tri", Primitives: []*gltf.Primitive{{
		Attributes: map[string]uint32{gltf.POSITION: pos, gltf.TEXCOORD_0: uv},
	}}}}
	doc.Nodes = []*gltf.Node{{Name: "Tri", Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = []uint32{0}

	var body bytes.Buffer
	enc := gltf.NewEncoder(&body)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		t.Fatalf("encode glb: %v", err)
	}

	ts := newTestServer()
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/export/gltf", "model/gltf-binary", &body)
	if err != nil {
		t.Fatalf("POST /export/gltf: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if _, ok := decodeObjects(t, resp)["Tri"]; !ok {
		t.Error("response is missing Tri")
	}
}
