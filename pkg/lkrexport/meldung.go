package lkrexport

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	lineBreakPattern   = regexp.MustCompile(`[\r\n]+\s*`)
	selfClosingPattern = regexp.MustCompile(`<([^\s/>!?]+)([^>]*?)\s*/>`)

	hexPrefixPattern     = regexp.MustCompile(`^[0-9A-F]+`)
	decimalSuffixPattern = regexp.MustCompile(`[0-9]+$`)
)

// Meldung is the text of one <Meldung> element including its tags.
type Meldung struct {
	raw string
}

// NewMeldung wraps raw report text.
func NewMeldung(raw string) Meldung {
	return Meldung{raw: raw}
}

// Raw returns the report text as found in the document.
func (m Meldung) Raw() string {
	return m.raw
}

// ID returns the Meldung_ID attribute of the opening <Meldung> tag.
func (m Meldung) ID() (string, bool) {
	tag := openingTagPattern.FindString(m.raw)
	if tag == "" {
		return "", false
	}
	match := meldungIDPattern.FindStringSubmatch(tag)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// ICD10 returns the content of the Primaertumor_ICD_Code element.
func (m Meldung) ICD10() (string, bool) {
	match := icd10Pattern.FindStringSubmatch(m.raw)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// DiagnosisDate returns the Diagnosedatum element as yyyy-mm-dd.
func (m Meldung) DiagnosisDate() (string, bool) {
	match := diagnosisDatePattern.FindStringSubmatch(m.raw)
	if match == nil {
		return "", false
	}
	return match[3] + "-" + match[2] + "-" + match[1], true
}

// DatabaseID returns the Meldung_ID normalized with ToDatabaseID.
func (m Meldung) DatabaseID() (string, bool) {
	id, ok := m.ID()
	if !ok {
		return "", false
	}
	return ToDatabaseID(id)
}

// SanitizedXML returns the report text in a form suitable for byte comparison:
// line breaks and the indentation following them are removed, the result is
// trimmed and self-closing elements are written as explicit open/close pairs.
// Applying it to its own output is a no-op.
func (m Meldung) SanitizedXML() string {
	content := lineBreakPattern.ReplaceAllString(m.raw, "")
	content = strings.TrimSpace(content)
	return selfClosingPattern.ReplaceAllString(content, "<${1}${2}></${1}>")
}

// ToDatabaseID converts a Meldung_ID into the numeric key Onkostar uses for the
// report. A leading run of upper case hex digits is read as a base 16 number;
// otherwise a trailing run of decimal digits is taken as is. Ids with a hex prefix
// beyond 64 bits yield no key.
func ToDatabaseID(id string) (string, bool) {
	if prefix := hexPrefixPattern.FindString(id); prefix != "" {
		value, err := strconv.ParseUint(prefix, 16, 64)
		if err != nil {
			return "", false
		}
		return strconv.FormatUint(value, 10), true
	}

	if suffix := decimalSuffixPattern.FindString(id); suffix != "" {
		return suffix, true
	}

	return "", false
}
