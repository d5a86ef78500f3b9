package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"time"

	"github.com/milk9111/articulation/ecs"
	"github.com/milk9111/articulation/ecs/component"
	"github.com/milk9111/articulation/ecs/entity"
	"github.com/milk9111/articulation/ecs/system"
	"github.com/milk9111/articulation/native"
	"github.com/milk9111/articulation/native/planar"
	"github.com/milk9111/articulation/prefabs"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if err := run(cfg, os.Stdout); err != nil {
		log.Printf("articulate: %v", err)
		if !cfg.Watch {
			os.Exit(1)
		}
	}
	if cfg.Watch {
		watch(cfg, os.Stdout)
	}
}

// scene is one built world and the systems that drive it.
type scene struct {
	world     *ecs.World
	dynamics  system.DynamicsWorld
	scheduler *ecs.Scheduler
	systems   entity.Systems
	scripts   *system.ScriptSystem
	nodes     map[string]ecs.Entity
}

func load(cfg Config) (*scene, prefabs.SceneSpec, error) {
	spec, err := prefabs.LoadSceneSpec(cfg.Scene)
	if err != nil {
		return nil, spec, err
	}

	var dw system.DynamicsWorld = native.NewWorld()
	if cfg.Planar {
		dw = planar.NewWorld(spec.Gravity, cfg.Iterations)
	}
	bus := system.NewTopologyBus()
	bodies := system.NewBodySystem(dw)
	artic := system.NewArticulationSystem(dw, bodies, bus)
	joints := system.NewJointSystem(dw, bodies, artic, bus)

	s := &scene{
		world:     ecs.NewWorld(),
		dynamics:  dw,
		scheduler: ecs.NewScheduler(bodies, artic, joints),
		systems:   entity.Systems{Bodies: bodies, Articulations: artic, Joints: joints},
		scripts:   system.NewScriptSystem(joints, artic, prefabs.LoadScript),
	}
	if s.nodes, err = entity.BuildScene(s.world, s.systems, spec); err != nil {
		return nil, spec, err
	}
	s.update()
	return s, spec, nil
}

// update runs the systems once and logs the articulation events they raised.
func (s *scene) update() {
	s.scheduler.Update(s.world)
	for _, ev := range s.world.Events().Drain() {
		log.Printf("articulate: %s %s", ev.Type, system.NodeName(s.world, ev.Node))
	}
}

func run(cfg Config, out io.Writer) error {
	s, spec, err := load(cfg)
	if err != nil {
		return err
	}

	script := cfg.Script
	if script == "" {
		script = spec.Script
	}
	if script != "" {
		if err := s.scripts.Run(s.world, script); err != nil {
			return err
		}
		s.update()
	}

	fmt.Fprintf(out, "scene %s\n%s", spec.Name, s.systems.Joints.Report(s.world))

	for i := 0; i < cfg.Steps; i++ {
		if err := s.dynamics.Step(cfg.DT); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		s.update()
	}
	if cfg.Steps > 0 {
		printPoses(out, s)
	}
	return nil
}

// printPoses lists the simulated pose of every body in name
// order.
func printPoses(out io.Writer, s *scene) {
	names := make([]string, 0, len(s.nodes))
	for name := range s.nodes {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		b, ok := ecs.Get(s.world, s.nodes[name], component.BodyComponent.Kind())
		if !ok || b.Native() == nil {
			continue
		}
		p := b.Native().WorldPose()
		fmt.Fprintf(out, "pose %s %.3f %.3f %.3f\n", name, p.Position.X(), p.Position.Y(), p.Position.Z())
	}
}

func watch(cfg Config, out io.Writer) {
	w, err := prefabs.NewWatcher(cfg.WatchDirs...)
	if err != nil {
		log.Fatalf("articulate: watch: %v", err)
	}
	defer w.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	log.Printf("articulate: watching %v", cfg.WatchDirs)

	for {
		select {
		case name, ok := <-w.Events:
			if !ok {
				return
			}
			if prefabs.IsSceneFile(name) && filepath.Base(name) != filepath.Base(cfg.Scene) {
				continue
			}
			// let the editor finish writing before reloading
			time.Sleep(cfg.Settle)
			log.Printf("articulate: %s changed, rebuilding", name)
			if err := run(cfg, out); err != nil {
				log.Printf("articulate: %v", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Printf("articulate: watch: %v", err)
		case <-interrupt:
			return
		}
	}
}
