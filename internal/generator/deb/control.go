package deb

import (
	"strings"

	"github.com/ralt/aptrepo/internal/models"
)

// Control field names
const (
	FieldPackage       = "Package"
	FieldVersion       = "Version"
	FieldArchitecture  = "Architecture"
	FieldMaintainer    = "Maintainer"
	FieldInstalledSize = "Installed-Size"
	FieldDepends       = "Depends"
	FieldSection       = "Section"
	FieldPriority      = "Priority"
	FieldDescription   = "Description"
)

// controlSetters holds the recognized keys. Matching is case-sensitive.
var controlSetters = map[string]func(*models.Package, string){
	FieldPackage:       func(p *models.Package, v string) { p.Name = v },
	FieldVersion:       func(p *models.Package, v string) { p.Version = v },
	FieldArchitecture:  func(p *models.Package, v string) { p.Architecture = v },
	FieldMaintainer:    func(p *models.Package, v string) { p.Maintainer = v },
	FieldInstalledSize: func(p *models.Package, v string) { p.InstalledSize = v },
	FieldDepends:       func(p *models.Package, v string) { p.Depends = v },
	FieldSection:       func(p *models.Package, v string) { p.Section = v },
	FieldPriority:      func(p *models.Package, v string) { p.Priority = v },
	FieldDescription:   func(p *models.Package, v string) { p.Description = v },
}

// ParseControl parses a control block into the control fields of pkg.
// Lines indented with a space or tab continue the most recent recognized
// field and are kept verbatim, so multi-line descriptions render back
// unchanged. Lines without a colon and unrecognized keys are ignored.
func ParseControl(text string, pkg *models.Package) error {
	if strings.TrimSpace(text) == "" {
		return models.NewError(models.ErrPackageParse, "no control content")
	}

	var currentKey string
	var currentValue strings.Builder

	flush := func() {
		if currentKey != "" {
			controlSetters[currentKey](pkg, currentValue.String())
		}
		currentKey = ""
		currentValue.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if line[0] == ' ' || line[0] == '\t' {
			if currentKey != "" {
				currentValue.WriteString("\n")
				currentValue.WriteString(strings.TrimRight(line, " \t"))
			}
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		flush()
		key = strings.TrimSpace(key)
		if _, known := controlSetters[key]; known {
			currentKey = key
			currentValue.WriteString(strings.TrimSpace(value))
		}
	}
	flush()

	return nil
}

// ParseControlText parses a control block into a new package record
func ParseControlText(text string) (*models.Package, error) {
	pkg := &models.Package{}
	if err := ParseControl(text, pkg); err != nil {
		return nil, err
	}
	return pkg, nil
}
