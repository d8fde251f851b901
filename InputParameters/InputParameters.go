package InputParameters

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ghodss/yaml"
	"github.com/spf13/cast"
)

// BoxParameters describes a structured box mesh, or names a mesh file
// (.msh or .su2) read instead
type BoxParameters struct {
	File      string     `json:"File" toml:"File"`
	Origin    [3]float64 `json:"Origin" toml:"Origin"`
	Size      [3]float64 `json:"Size" toml:"Size"`
	Divisions [3]int     `json:"Divisions" toml:"Divisions"`
	Element   string     `json:"Element" toml:"Element"` // hex, tet or prism
}

// MapParameters is the run description of a mesh to mesh mapping, read from
// a YAML or TOML file
type MapParameters struct {
	Title       string        `json:"Title" toml:"Title"`
	Method      string        `json:"Method" toml:"Method"`
	Tolerance   float64       `json:"Tolerance" toml:"Tolerance"`
	NumProcs    int           `json:"NumProcs" toml:"NumProcs"`
	Partitioner string        `json:"Partitioner" toml:"Partitioner"`
	Source      BoxParameters `json:"Source" toml:"Source"`
	Target      BoxParameters `json:"Target" toml:"Target"`
}

// NewMapParameters returns the defaults, overwritten by whatever is parsed
func NewMapParameters() *MapParameters {
	return &MapParameters{
		Method:      "cellVolumeWeight",
		Tolerance:   1e-6,
		NumProcs:    1,
		Partitioner: "block",
	}
}

func (mp *MapParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, mp)
}

func (mp *MapParameters) ParseTOML(data []byte) (err error) {
	_, err = toml.Decode(string(data), mp)
	return
}

// ReadMapParameters reads a run description, TOML when the file extension is
// .toml and YAML otherwise
func ReadMapParameters(path string) (mp *MapParameters, err error) {
	var data []byte
	if data, err = os.ReadFile(path); err != nil {
		return
	}
	mp = NewMapParameters()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = mp.ParseTOML(data)
	} else {
		err = mp.Parse(data)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return
}

func (bp BoxParameters) validate(name string) error {
	if bp.File != "" {
		return nil
	}
	for i := 0; i < 3; i++ {
		if bp.Size[i] <= 0 {
			return fmt.Errorf("%s: size %v must be positive in every direction", name, bp.Size)
		}
		if bp.Divisions[i] < 1 {
			return fmt.Errorf("%s: divisions %v must be at least one in every direction", name, bp.Divisions)
		}
	}
	if bp.Element == "" {
		return fmt.Errorf("%s: element type is required", name)
	}
	return nil
}

// Validate checks the values a run cannot start without. Method, element
// and partitioner names are checked by the packages consuming them.
func (mp *MapParameters) Validate() (err error) {
	if mp.Method == "" {
		return fmt.Errorf("method is required")
	}
	if mp.Tolerance <= 0 || mp.Tolerance >= 1 {
		return fmt.Errorf("tolerance %g must be in (0,1)", mp.Tolerance)
	}
	if mp.NumProcs < 1 {
		return fmt.Errorf("number of processors %d must be positive", mp.NumProcs)
	}
	if err = mp.Source.validate("Source"); err != nil {
		return
	}
	return mp.Target.validate("Target")
}

// ApplyOverrides replaces parameters with values given on the command line
// or in the environment. Keys are parameter names, values are anything cast
// can convert.
func (mp *MapParameters) ApplyOverrides(overrides map[string]interface{}) (err error) {
	for key, val := range overrides {
		if val == nil {
			continue
		}
		switch key {
		case "Title":
			mp.Title, err = cast.ToStringE(val)
		case "Method":
			mp.Method, err = cast.ToStringE(val)
		case "Tolerance":
			mp.Tolerance, err = cast.ToFloat64E(val)
		case "NumProcs":
			mp.NumProcs, err = cast.ToIntE(val)
		case "Partitioner":
			mp.Partitioner, err = cast.ToStringE(val)
		default:
			return fmt.Errorf("unknown parameter %q", key)
		}
		if err != nil {
			return fmt.Errorf("parameter %s: %w", key, err)
		}
	}
	return
}

func (mp *MapParameters) Print() {
	mp.Fprint(os.Stdout)
}

func (mp *MapParameters) Fprint(w io.Writer) {
	fmt.Fprintf(w, "\"%s\"\t\t= Title\n", mp.Title)
	fmt.Fprintf(w, "[%s]\t= Method\n", mp.Method)
	fmt.Fprintf(w, "%8.2e\t\t= Tolerance\n", mp.Tolerance)
	fmt.Fprintf(w, "[%d]\t\t\t\t= Number of Processors\n", mp.NumProcs)
	fmt.Fprintf(w, "[%s]\t\t\t= Partitioner\n", mp.Partitioner)
	boxes := map[string]BoxParameters{"Source": mp.Source, "Target": mp.Target}
	keys := make([]string, 0, len(boxes))
	for k := range boxes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		b := boxes[key]
		if b.File != "" {
			fmt.Fprintf(w, "%s = %s\n", key, b.File)
			continue
		}
		fmt.Fprintf(w, "%s[%s] = Origin %v, Size %v, Divisions %v\n",
			key, b.Element, b.Origin, b.Size, b.Divisions)
	}
}
