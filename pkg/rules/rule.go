package rules

import "strings"

// Rule is a single line of relocation policy: files matching Source are
// moved or copied to Subpath on the given storage target.
type Rule struct {
	// Line is the 1-indexed position of the rule in the file it was
	// loaded from. It is informational only and not persisted.
	Line int `json:"line,omitempty"`

	Source  string `json:"source"`
	Target  string `json:"target"`
	Subpath string `json:"subpath"`
	Mode    string `json:"mode"`
}

// Storage targets.
const (
	TargetSSD   = "SSD"
	TargetNAS   = "NAS"
	TargetLocal = "Local"
)

// Transfer modes. ModeMove migrates the content and leaves a symlink behind,
// ModeCopy duplicates it for backup purposes only.
const (
	ModeMove = "move"
	ModeCopy = "copy"
)

// Category is a presentation-level grouping derived from a rule's source
// path. It is never persisted as data, only emitted as section comments.
type Category string

const (
	CategoryNativeInstruments Category = "Native Instruments"
	CategoryUVI               Category = "UVI Products"
	CategoryArturia           Category = "Arturia"
	CategoryLogicPro          Category = "Logic Pro"
	CategorySamples           Category = "Sample Libraries"
	CategoryProjects          Category = "Projects"
	CategorySystemContent     Category = "System Content"
	CategoryUserSettings      Category = "User Settings"
	CategoryOther             Category = "Other"
)

// Categorize derives the presentation category of a rule from its source
// path, case-insensitively. The cases are ordered and the first hit wins,
// so the vendor entries must stay above the generic path entries. An
// absolute /Library/Application Support path is system-level content; a
// relative or home-anchored one belongs to the user's own settings.
func Categorize(rule Rule) Category {
	source := strings.ToLower(rule.Source)

	switch {
	case strings.Contains(source, "native instruments"):
		return CategoryNativeInstruments
	case strings.Contains(source, "uvi"):
		return CategoryUVI
	case strings.Contains(source, "arturia"):
		return CategoryArturia
	case strings.Contains(source, "logic"):
		return CategoryLogicPro
	case strings.Contains(source, "samples"):
		return CategorySamples
	case strings.Contains(source, "projects"), strings.Contains(source, "music"):
		return CategoryProjects
	case strings.HasPrefix(source, "/library/application support"):
		return CategorySystemContent
	case strings.Contains(source, "library/application support"), strings.Contains(source, "documents"):
		return CategoryUserSettings
	}

	return CategoryOther
}
