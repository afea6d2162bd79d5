package steps

import (
	"sort"
	"strings"

	"golang.org/x/xerrors"
)

// Step is one named stage of the localization pipeline.
type Step string

const (
	Download        Step = "Download"
	Gather          Step = "Gather"
	Import          Step = "Import"
	Export          Step = "Export"
	Compile         Step = "Compile"
	GenerateReports Step = "GenerateReports"
	Upload          Step = "Upload"

	// Monolithic is the synthetic step used by legacy single-file projects. A
	// monolithic config may perform several logical steps at once, so it is
	// always treated as applicable regardless of which steps were requested.
	Monolithic Step = "Monolithic"
)

// ConfigSteps are the steps that are backed by a per-step config file in a
// modular project, in pipeline order. This order is also the order in which
// config files are passed to the gather tool.
var ConfigSteps = []Step{Gather, Import, Export, Compile, GenerateReports}

// All lists every step a caller may request.
var All = []Step{Download, Gather, Import, Export, Compile, GenerateReports, Upload}

// requiredWhen maps a config step to the set of requested steps that make its
// config file mandatory. Download needs parsed import settings to know where
// downloaded files go; Upload needs parsed export settings, and a gather pass
// produces export-relevant artifacts. GenerateReports is never required.
var requiredWhen = map[Step][]Step{
	Gather:  {Gather},
	Import:  {Import, Download},
	Export:  {Gather, Upload},
	Compile: {Compile},
}

// Required reports whether the config file for step must exist given the
// requested step set.
func Required(step Step, requested Set) bool {
	for _, r := range requiredWhen[step] {
		if requested.Has(r) {
			return true
		}
	}
	return false
}

// Parse converts a step name to a Step. Matching is case-sensitive; the
// synthetic Monolithic step cannot be requested explicitly.
func Parse(s string) (Step, error) {
	for _, st := range All {
		if string(st) == s {
			return st, nil
		}
	}
	return "", xerrors.Errorf("unknown pipeline step %q", s)
}

// Set is an unordered collection of requested steps.
type Set map[Step]struct{}

func NewSet(ss ...Step) Set {
	set := make(Set, len(ss))
	for _, s := range ss {
		set[s] = struct{}{}
	}
	return set
}

// ParseSet parses a list of step names into a Set.
func ParseSet(names []string) (Set, error) {
	set := make(Set, len(names))
	for _, n := range names {
		s, err := Parse(n)
		if err != nil {
			return nil, err
		}
		set[s] = struct{}{}
	}
	return set, nil
}

func (s Set) Has(step Step) bool {
	_, ok := s[step]
	return ok
}

func (s Set) Add(step Step) {
	s[step] = struct{}{}
}

func (s Set) String() string {
	names := make([]string, 0, len(s))
	for st := range s {
		names = append(names, string(st))
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// suffixes are the per-step file name suffixes of a modular project, e.g.
// Game_Gather.ini. Discovery strips these to recover target names.
var suffixes = []string{"_Gather", "_Import", "_Export", "_Compile", "_GenerateReports"}

// FileSuffix returns the config file suffix for a modular step.
func FileSuffix(step Step) string {
	return "_" + string(step)
}

// StripStepSuffix removes a trailing step suffix from a config file base name,
// if one is present. Stripping an already-stripped name is a no-op.
func StripStepSuffix(name string) string {
	for _, suf := range suffixes {
		if strings.HasSuffix(name, suf) {
			return strings.TrimSuffix(name, suf)
		}
	}
	return name
}
