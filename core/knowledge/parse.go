package knowledge

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// Legacy Fact-Line Parsing
// =============================================================================
//
// Older deployments stored facts as formatted text lines rather than
// structured rows. Parsing lives here, at the store's read boundary, so the
// resolver core never sees raw text. Known line shapes:
//
//	alice likes pizza (confidence: 0.8)
//	alice works_at "Initech Corp" (confidence: 0.95)
//	alice dislikes cilantro            <- no confidence suffix, assume 1.0
//	- alice trusts bob (confidence: 0.7)   <- bulleted export format

var factLinePattern = regexp.MustCompile(
	`^(?:-\s*)?(\S+)\s+(\S+)\s+(?:"([^"]+)"|(.+?))\s*(?:\(confidence:\s*([0-9.]+)\))?\s*$`)

// ParseFactLine parses one legacy formatted fact line. The returned fact has
// no ID or timestamps; callers fill those when migrating rows forward.
func ParseFactLine(line string) (*Fact, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, fmt.Errorf("knowledge: empty fact line")
	}

	match := factLinePattern.FindStringSubmatch(trimmed)
	if match == nil {
		return nil, fmt.Errorf("knowledge: unparseable fact line %q", line)
	}

	object := match[3]
	if object == "" {
		object = strings.TrimSuffix(strings.TrimSpace(match[4]), ".")
	}
	if object == "" {
		return nil, fmt.Errorf("knowledge: fact line %q has no object", line)
	}

	confidence := 1.0
	if match[5] != "" {
		parsed, err := strconv.ParseFloat(match[5], 64)
		if err != nil {
			return nil, fmt.Errorf("knowledge: bad confidence in fact line %q: %w", line, err)
		}
		confidence = clamp01(parsed)
	}

	return &Fact{
		SubjectID:    match[1],
		RelationType: match[2],
		ObjectEntity: object,
		Confidence:   confidence,
		SourceTag:    "legacy_import",
	}, nil
}

// ParseFactLines parses a block of legacy lines, skipping blanks and
// collecting per-line errors rather than failing the whole block.
func ParseFactLines(block string) ([]*Fact, []error) {
	var facts []*Fact
	var errs []error
	for _, line := range strings.Split(block, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fact, err := ParseFactLine(line)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		facts = append(facts, fact)
	}
	return facts, errs
}
