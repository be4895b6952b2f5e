package scenario

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/toastkit/internal/config"
	"github.com/vango-dev/toastkit/internal/errors"
	"github.com/vango-dev/toastkit/pkg/toast"
)

// Scenario is a scripted sequence of toast operations.
type Scenario struct {
	// Name is shown in the timeline header.
	Name string `yaml:"name"`

	// Channel overrides the channel name from the config.
	Channel string `yaml:"channel"`

	// Config holds provider settings layered over the --config file.
	Config *config.Config `yaml:"config"`

	Steps []Step `yaml:"steps"`

	path string
}

// Action names what a Step does.
type Action string

const (
	ActionAdd       Action = "add"
	ActionUpdate    Action = "update"
	ActionRemove    Action = "remove"
	ActionDismiss   Action = "dismiss"
	ActionHover     Action = "hover"
	ActionLeave     Action = "leave"
	ActionRemoveAll Action = "remove_all"
)

// Step is one timed action. Exactly one of the action fields is set.
type Step struct {
	At Duration `yaml:"at"`

	Add       *ToastArgs `yaml:"add"`
	Update    *ToastArgs `yaml:"update"`
	Remove    *Target    `yaml:"remove"`
	Dismiss   *Target    `yaml:"dismiss"`
	Hover     *Target    `yaml:"hover"`
	Leave     *Target    `yaml:"leave"`
	RemoveAll bool       `yaml:"remove_all"`

	// Line and Column locate the step in its file.
	Line   int `yaml:"-"`
	Column int `yaml:"-"`
}

// ToastArgs are the arguments of an add or update step.
type ToastArgs struct {
	ID               string         `yaml:"id"`
	Content          string         `yaml:"content"`
	Appearance       string         `yaml:"appearance"`
	AutoDismiss      *bool          `yaml:"auto_dismiss"`
	AutoDismissAfter *Duration      `yaml:"auto_dismiss_after"`
	Fields           map[string]any `yaml:"fields"`
}

// Target names the toast a step applies to.
type Target struct {
	ID string `yaml:"id"`
}

var stepKeys = []string{"at", "add", "update", "remove", "dismiss", "hover", "leave", "remove_all"}

// Duration is a time.Duration written in Go syntax, e.g. 1.5s or 250ms.
type Duration time.Duration

// D returns d as a time.Duration.
func (d Duration) D() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return &nodeError{node: node, code: "T202", detail: "expected a duration such as 1s"}
	}
	if node.Value == "0" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(node.Value)
	if err != nil {
		return &nodeError{node: node, code: "T202", detail: fmt.Sprintf("%q is not a duration", node.Value)}
	}
	if v < 0 {
		return &nodeError{node: node, code: "T202", detail: fmt.Sprintf("%q is negative", node.Value)}
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML records the step's position and rejects unknown keys.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return &nodeError{node: node, code: "T201", detail: "a step is a mapping with an at key and one action"}
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if !slices.Contains(stepKeys, key.Value) {
			return &nodeError{node: key, code: "T201", detail: fmt.Sprintf("unknown key %q", key.Value)}
		}
	}

	type plain Step
	if err := node.Decode((*plain)(s)); err != nil {
		return err
	}
	s.Line, s.Column = node.Line, node.Column
	return nil
}

// Action returns the step's action, or "" when none or several are set.
func (s Step) Action() Action {
	actions := s.actions()
	if len(actions) != 1 {
		return ""
	}
	return actions[0]
}

func (s Step) actions() []Action {
	var out []Action
	if s.Add != nil {
		out = append(out, ActionAdd)
	}
	if s.Update != nil {
		out = append(out, ActionUpdate)
	}
	if s.Remove != nil {
		out = append(out, ActionRemove)
	}
	if s.Dismiss != nil {
		out = append(out, ActionDismiss)
	}
	if s.Hover != nil {
		out = append(out, ActionHover)
	}
	if s.Leave != nil {
		out = append(out, ActionLeave)
	}
	if s.RemoveAll {
		out = append(out, ActionRemoveAll)
	}
	return out
}

// TargetID returns the ID the step refers to, "" for remove_all and for
// an add without an explicit id.
func (s Step) TargetID() toast.ID {
	switch s.Action() {
	case ActionAdd:
		return toast.ID(s.Add.ID)
	case ActionUpdate:
		return toast.ID(s.Update.ID)
	case ActionRemove:
		return toast.ID(s.Remove.ID)
	case ActionDismiss:
		return toast.ID(s.Dismiss.ID)
	case ActionHover:
		return toast.ID(s.Hover.ID)
	case ActionLeave:
		return toast.ID(s.Leave.ID)
	default:
		return ""
	}
}

// Options converts the arguments into toast options. Unset fields produce no
// option, so an update leaves them alone.
func (ts *ToastArgs) Options() []toast.Option {
	var opts []toast.Option
	if ts.Appearance != "" {
		opts = append(opts, toast.WithAppearance(toast.Appearance(ts.Appearance)))
	}
	if ts.AutoDismiss != nil {
		opts = append(opts, toast.WithAutoDismiss(*ts.AutoDismiss))
	}
	if ts.AutoDismissAfter != nil {
		opts = append(opts, toast.WithAutoDismissAfter(ts.AutoDismissAfter.D()))
	}
	if len(ts.Fields) > 0 {
		opts = append(opts, toast.WithFields(ts.Fields))
	}
	return opts
}

// nodeError is an error tied to a YAML node, converted to a located
// ToolError once the file name is known.
type nodeError struct {
	node   *yaml.Node
	code   string
	detail string
}

func (e *nodeError) Error() string {
	return fmt.Sprintf("line %d: %s", e.node.Line, e.detail)
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("T200").Wrap(err).WithDetail(err.Error())
	}
	return Parse(path, data)
}

// Parse decodes and validates a scenario. name is used for error
// locations.
func Parse(name string, data []byte) (*Scenario, error) {
	sc := &Scenario{path: name}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(sc); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.New("T204").WithDetail(name + " is empty")
		}
		var ne *nodeError
		if stderrors.As(err, &ne) {
			return nil, errors.New(ne.code).
				WithLocation(name, ne.node.Line, ne.node.Column).
				WithDetail(ne.detail).
				WithSuggestion(suggestionFor(ne.code))
		}
		return nil, errors.New("T200").Wrap(err).WithDetail(err.Error())
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// Path returns the file the scenario was parsed from.
func (sc *Scenario) Path() string {
	return sc.path
}

// Validate checks that every step has exactly one action and every action
// that names a toast has an ID.
func (sc *Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return errors.New("T204").
			WithExample("steps:\n  - at: 0s\n    add: {id: saved, content: Saved, appearance: success}")
	}

	for i, st := range sc.Steps {
		actions := st.actions()
		switch {
		case len(actions) == 0:
			return sc.stepError(st, "T201", fmt.Sprintf("step %d has no action", i+1))
		case len(actions) > 1:
			return sc.stepError(st, "T201", fmt.Sprintf("step %d has %d actions: %s", i+1, len(actions), joinActions(actions)))
		}

		if a := actions[0]; a != ActionAdd && a != ActionRemoveAll && st.TargetID() == "" {
			return sc.stepError(st, "T203", fmt.Sprintf("step %d: %s needs an id", i+1, a))
		}
	}

	if sc.Config != nil {
		if err := sc.Config.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (sc *Scenario) stepError(st Step, code, detail string) error {
	te := errors.New(code)
	if st.Line > 0 {
		te.WithLocation(sc.path, st.Line, st.Column)
	}
	return te.WithDetail(detail).WithSuggestion(suggestionFor(code))
}

// Sorted returns the steps ordered by At. Steps with equal times keep
// their file order.
func (sc *Scenario) Sorted() []Step {
	steps := slices.Clone(sc.Steps)
	slices.SortStableFunc(steps, func(a, b Step) int {
		switch {
		case a.At < b.At:
			return -1
		case a.At > b.At:
			return 1
		default:
			return 0
		}
	})
	return steps
}

// End returns the time of the last step.
func (sc *Scenario) End() time.Duration {
	var end Duration
	for _, st := range sc.Steps {
		end = max(end, st.At)
	}
	return end.D()
}

func suggestionFor(code string) string {
	switch code {
	case "T201":
		return "Use one of " + joinActions(allActions) + " per step"
	case "T202":
		return "Write durations like 250ms, 5s or 1m30s"
	case "T203":
		return "Add an id: the action applies to the toast with that id"
	default:
		return ""
	}
}

var allActions = []Action{ActionAdd, ActionUpdate, ActionRemove, ActionDismiss, ActionHover, ActionLeave, ActionRemoveAll}

func joinActions(actions []Action) string {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}
