package mudoc

import "fmt"

// MetadataName selects a document metadata field.
type MetadataName int

const (
	Format MetadataName = iota
	Encryption
	Author
	Title
	Producer
	Creator
	CreationDate
	ModDate
	Subject
	Keywords
)

var metadataKeys = [...]string{
	Format:       "format",
	Encryption:   "encryption",
	Author:       "info:Author",
	Title:        "info:Title",
	Producer:     "info:Producer",
	Creator:      "info:Creator",
	CreationDate: "info:CreationDate",
	ModDate:      "info:ModDate",
	Subject:      "info:Subject",
	Keywords:     "info:Keywords",
}

var metadataNames = [...]string{
	Format:       "format",
	Encryption:   "encryption",
	Author:       "author",
	Title:        "title",
	Producer:     "producer",
	Creator:      "creator",
	CreationDate: "creation_date",
	ModDate:      "mod_date",
	Subject:      "subject",
	Keywords:     "keywords",
}

// MetadataNames returns every metadata field in declaration order.
func MetadataNames() []MetadataName {
	names := make([]MetadataName, len(metadataKeys))
	for i := range names {
		names[i] = MetadataName(i)
	}
	return names
}

// Key returns the engine lookup key.
func (m MetadataName) Key() string {
	if m < 0 || int(m) >= len(metadataKeys) {
		return ""
	}
	return metadataKeys[m]
}

func (m MetadataName) String() string {
	if m < 0 || int(m) >= len(metadataNames) {
		return fmt.Sprintf("MetadataName(%d)", int(m))
	}
	return metadataNames[m]
}

// ParseMetadataName maps a name returned by String back to its field.
func ParseMetadataName(s string) (MetadataName, bool) {
	for i, n := range metadataNames {
		if n == s {
			return MetadataName(i), true
		}
	}
	return 0, false
}
