package pipeline

import (
	"fmt"
	"os"

	"github.com/hupe1980/cimesh/core"
	"github.com/hupe1980/cimesh/step"
	"github.com/hupe1980/cimesh/trigger"
	"gopkg.in/yaml.v3"
)

// Pipeline is a parsed definition file.
type Pipeline struct {
	// Name identifies the pipeline in logs and reports.
	Name string `yaml:"name"`

	// On declares the trigger policy. An absent section falls back to the
	// default main-branch policy.
	On *TriggerSpec `yaml:"on"`

	// Jobs lists the job specs in document order.
	Jobs []JobSpec `yaml:"jobs"`
}

// TriggerSpec is the "on" section of a definition file.
type TriggerSpec struct {
	Events   []string `yaml:"events"`
	Branches []string `yaml:"branches"`
}

// Policy converts the spec into a trigger policy. Empty fields inherit the
// default policy's values.
func (t *TriggerSpec) Policy() (trigger.Policy, error) {
	policy := trigger.DefaultPolicy
	if t == nil {
		return policy, nil
	}
	if len(t.Events) > 0 {
		kinds := make([]core.EventKind, 0, len(t.Events))
		for _, e := range t.Events {
			kind := core.EventKind(e)
			if kind != core.EventPush && kind != core.EventPullRequest {
				return trigger.Policy{}, fmt.Errorf("unknown event kind %q", e)
			}
			kinds = append(kinds, kind)
		}
		policy.Kinds = kinds
	}
	if len(t.Branches) > 0 {
		policy.Branches = append([]string(nil), t.Branches...)
	}
	return policy, nil
}

// JobSpec is one entry of the jobs sequence.
type JobSpec struct {
	Name   string     `yaml:"name"`
	RunsOn string     `yaml:"runs-on"`
	Matrix MatrixSpec `yaml:"matrix"`
	Steps  []StepSpec `yaml:"steps"`
}

// Definition converts the spec into a job definition.
func (j *JobSpec) Definition() (core.JobDefinition, error) {
	if j.Name == "" {
		return core.JobDefinition{}, fmt.Errorf("job without a name")
	}
	osFamily := core.OSFamily(j.RunsOn)
	if j.RunsOn == "" {
		osFamily = core.OSUbuntu
	} else if !core.KnownOSFamily(osFamily) {
		return core.JobDefinition{}, fmt.Errorf("job %s: unknown runs-on %q", j.Name, j.RunsOn)
	}
	if len(j.Steps) == 0 {
		return core.JobDefinition{}, fmt.Errorf("job %s: no steps", j.Name)
	}

	steps := make([]core.Step, 0, len(j.Steps))
	for i, s := range j.Steps {
		built, err := s.build()
		if err != nil {
			return core.JobDefinition{}, fmt.Errorf("job %s: step %d: %w", j.Name, i+1, err)
		}
		steps = append(steps, built)
	}

	def := core.JobDefinition{
		Name:   j.Name,
		RunsOn: osFamily,
		Matrix: j.Matrix.dims,
		Steps:  steps,
	}
	if err := def.Validate(); err != nil {
		return core.JobDefinition{}, err
	}
	return def, nil
}

// MatrixSpec is a mapping of dimension name to value list. Dimensions keep
// their document order, which standard map decoding would lose.
type MatrixSpec struct {
	dims core.Matrix
}

// Dimensions returns the declared dimensions in document order.
func (m MatrixSpec) Dimensions() core.Matrix { return m.dims }

// UnmarshalYAML decodes the mapping node pairwise to preserve order.
func (m *MatrixSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("matrix must be a mapping")
	}
	for i := 0; i < len(value.Content)-1; i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		var values []string
		if err := val.Decode(&values); err != nil {
			return fmt.Errorf("matrix dimension %s: %w", key.Value, err)
		}
		m.dims = append(m.dims, core.Dimension{Name: key.Value, Values: values})
	}
	return nil
}

// StepSpec is one entry of a job's steps sequence. Exactly one action key
// selects the step type: checkout, install-runtime, install-dependencies or
// run. An optional name key overrides the display name of a run step.
type StepSpec struct {
	action string
	node   *yaml.Node
	label  string
}

// UnmarshalYAML captures the action key and its value node; decoding into a
// concrete step is deferred to build so errors carry the job context.
func (s *StepSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("step must be a mapping")
	}
	for i := 0; i < len(value.Content)-1; i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		switch key.Value {
		case "name":
			s.label = val.Value
		case "checkout", "install-runtime", "install-dependencies", "run":
			if s.action != "" {
				return fmt.Errorf("step declares both %s and %s", s.action, key.Value)
			}
			s.action = key.Value
			s.node = val
		default:
			return fmt.Errorf("unknown step key %q", key.Value)
		}
	}
	if s.action == "" {
		return fmt.Errorf("step without an action key")
	}
	return nil
}

func (s *StepSpec) build() (core.Step, error) {
	switch s.action {
	case "checkout":
		repo := s.node.Value
		if repo == "" {
			repo = "."
		}
		return step.NewCheckout(repo), nil

	case "install-runtime":
		return step.NewInstallRuntime(s.node.Value), nil

	case "install-dependencies":
		var deps struct {
			Manifests []string `yaml:"manifests"`
			Installer string   `yaml:"installer"`
		}
		switch s.node.Kind {
		case yaml.ScalarNode:
			deps.Manifests = []string{s.node.Value}
		case yaml.SequenceNode:
			if err := s.node.Decode(&deps.Manifests); err != nil {
				return nil, fmt.Errorf("install-dependencies: %w", err)
			}
		case yaml.MappingNode:
			if err := s.node.Decode(&deps); err != nil {
				return nil, fmt.Errorf("install-dependencies: %w", err)
			}
		default:
			return nil, fmt.Errorf("install-dependencies: unsupported value")
		}
		built := step.NewInstallDependencies(deps.Manifests...)
		built.Installer = deps.Installer
		return built, nil

	case "run":
		if s.node.Value == "" {
			return nil, fmt.Errorf("run: empty command")
		}
		if s.label != "" {
			return step.NewNamedRunCommand(s.label, s.node.Value), nil
		}
		return step.NewRunCommand(s.node.Value), nil
	}
	return nil, fmt.Errorf("unknown action %q", s.action)
}

// Parse decodes a definition document.
func Parse(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline: %w", err)
	}
	if len(p.Jobs) == 0 {
		return nil, fmt.Errorf("pipeline declares no jobs")
	}
	seen := make(map[string]bool, len(p.Jobs))
	for _, j := range p.Jobs {
		if seen[j.Name] {
			return nil, fmt.Errorf("duplicate job name %q", j.Name)
		}
		seen[j.Name] = true
	}
	return &p, nil
}

// Load reads and parses a definition file.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file: %w", err)
	}
	return Parse(data)
}

// Definitions converts every job spec, in document order.
func (p *Pipeline) Definitions() ([]core.JobDefinition, error) {
	defs := make([]core.JobDefinition, 0, len(p.Jobs))
	for i := range p.Jobs {
		def, err := p.Jobs[i].Definition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Policy returns the trigger policy declared by the "on" section.
func (p *Pipeline) Policy() (trigger.Policy, error) {
	return p.On.Policy()
}
