package trait

import "strings"

// Implementation is one script in a Behavior's super-call chain. Index 0
// executes first and may delegate to the next.
type Implementation struct {
	Trait
	Language string `json:"language"`
	Script   string `json:"script"`
}

// IsSynthetic reports whether the script is a generated bridge
// implementation. Synthetic languages carry a parenthesized descriptor.
func (i Implementation) IsSynthetic() bool {
	return strings.Contains(i.Language, "(")
}

// IsLanguageLegal reports whether lang may be used for a new script.
func IsLanguageLegal(lang string) bool {
	return strings.TrimSpace(lang) != ""
}

// resolve copies the base script. Scripts are never composed piecewise.
func (i Implementation) resolve(delta Implementation, path string, errs *ErrorList) Implementation {
	if delta.Language != "" && delta.Language != i.Language {
		errs.Warn(ResolveImplLanguageChange, delta.Language, i.Language, path)
	}
	return Implementation{
		Trait:    resolveTrait(i.Trait, delta.Trait, path, errs),
		Language: i.Language,
		Script:   i.Script,
	}
}

func (i Implementation) nullDerived(mode Mode) Implementation {
	return Implementation{
		Trait:    i.Trait.blank(mode),
		Language: i.Language,
		Script:   i.Script,
	}
}

func (i Implementation) clone() Implementation {
	i.Trait = i.Trait.clone()
	return i
}
