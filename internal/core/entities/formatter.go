package entities

import "fmt"

// FormatterInstanceConfig is one entry of a formatter run configuration
// (spec §4.5): `[{ name, options?, output }]`.
type FormatterInstanceConfig struct {
	Name    string
	Options map[string]any
	Output  FormatterOutput
}

// FormatterOutput names the directory a formatter instance should write
// into, overriding the run's default output directory when set.
type FormatterOutput struct {
	Directory string
}

// FormatterToken is the per-pointer view a formatter's run function
// receives (spec §6).
type FormatterToken struct {
	Snapshot   TokenSnapshot
	Pointer    Pointer
	Type       TokenType
	Value      any
	Transforms map[string]any // transform name -> output
}

// FormatterRun produces file artifacts from the tokens in context.
type FormatterRun func(tokens []FormatterToken) ([]FileArtifact, error)

// FormatterDefinition is what a Formatter Definition Factory produces
// (spec §6).
type FormatterDefinition struct {
	Name     string
	Selector Selector
	Run      FormatterRun
}

// FormatterPlan pairs a formatter instance with its resolved definition
// (spec §3). ID is unique within a run: "<name>#<index>".
type FormatterPlan struct {
	ID         string
	Name       string
	Definition FormatterDefinition
	Output     FormatterOutput
}

// NewFormatterPlanID builds the "<name>#<index>" plan id (spec §3).
func NewFormatterPlanID(name string, index int) string {
	return fmt.Sprintf("%s#%d", name, index)
}

// ArtifactEncoding is the byte interpretation of a FileArtifact's contents.
type ArtifactEncoding string

const (
	ArtifactEncodingUTF8   ArtifactEncoding = "utf8"
	ArtifactEncodingBinary ArtifactEncoding = "binary"
)

// FileArtifact is a single output file a formatter produces (spec §3).
type FileArtifact struct {
	Path     string
	Contents []byte
	Encoding ArtifactEncoding
	Metadata map[string]any
}

// WithMetadata returns a copy of the artifact with additional metadata
// merged in, without mutating the original (spec §4.5 "without mutating
// the originally returned object").
func (a FileArtifact) WithMetadata(extra map[string]any) FileArtifact {
	merged := make(map[string]any, len(a.Metadata)+len(extra))
	for k, v := range a.Metadata {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return FileArtifact{
		Path:     a.Path,
		Contents: a.Contents,
		Encoding: a.Encoding,
		Metadata: merged,
	}
}
