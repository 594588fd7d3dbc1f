package entities

// Manifest represents a parsed dependency manifest (requirements file)
type Manifest struct {
	Path         string
	Requirements []Requirement
	Options      []string // installer option lines such as "-r base.txt" or "--index-url ..."
}

// Requirement is one package identifier, optionally version-pinned
type Requirement struct {
	Name      string
	Extras    []string
	Specifier string // e.g. "==1.3.1" or ">=2.0,<3"; empty when unpinned
	Line      int
}

// Pinned reports whether the requirement carries a version specifier
func (r Requirement) Pinned() bool {
	return r.Specifier != ""
}
