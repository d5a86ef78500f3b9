package prefabs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSceneValidate(t *testing.T) {
	cases := []struct {
		name string
		spec SceneSpec
		want string
	}{
		{"ok", SceneSpec{Nodes: []NodeSpec{{Name: "a"}, {Name: "b", Parent: "a"}}}, ""},
		{"unnamed", SceneSpec{Nodes: []NodeSpec{{}}}, "no name"},
		{"duplicate", SceneSpec{Nodes: []NodeSpec{{Name: "a"}, {Name: "a"}}}, "duplicate"},
		{"parent_after_child", SceneSpec{Nodes: []NodeSpec{{Name: "b", Parent: "a"}, {Name: "a"}}}, "undeclared parent"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.spec.Validate()
			if c.want == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), c.want) {
				t.Fatalf("expected an error containing %q, got %v", c.want, err)
			}
		})
	}
}

func TestEmbeddedScenes(t *testing.T) {
	for _, name := range []string{"chain.yaml", "scenes/pendulum.yaml", "prefabs/scenes/chain.yaml"} {
		t.Run(name, func(t *testing.T) {
			spec, err := LoadSceneSpec(name)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(spec.Nodes) == 0 {
				t.Fatalf("expected nodes")
			}
		})
	}

	spec, _ := LoadSceneSpec("chain.yaml")
	src, err := LoadScript(spec.Script)
	if err != nil || !strings.Contains(string(src), "run :=") {
		t.Fatalf("expected the chain script, got %v", err)
	}
}

func TestDecodeJointSpec(t *testing.T) {
	raw := map[string]any{
		"type":           "slider",
		"b":              "arm",
		"linear_motion":  map[string]any{"y": "limited"},
		"linear_limits":  map[string]any{"y": map[string]any{"lower": -1, "upper": 2}},
		"skip_multibody": true,
		"motor":          map[string]any{"mode": "velocity", "vector": []any{0, 1, 0}},
	}
	spec, err := DecodeComponentSpec[JointComponentSpec](raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if spec.Type != "slider" || spec.B != "arm" || !spec.SkipMultibody {
		t.Fatalf("unexpected spec %+v", spec)
	}
	if spec.LinearMotion.Y != "limited" || spec.LinearLimits.Y.Upper != 2 {
		t.Fatalf("unexpected axes %+v %+v", spec.LinearMotion, spec.LinearLimits)
	}
	if len(spec.Motor.Vector) != 3 || spec.Motor.Scalar != nil {
		t.Fatalf("unexpected motor %+v", spec.Motor)
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	scene := filepath.Join(dir, "chain.yaml")
	if err := os.WriteFile(scene, []byte("name: chain\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case name := <-w.Events:
		if name != scene {
			t.Fatalf("expected %s, got %s", scene, name)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no event for %s", scene)
	}
}
