package scorm

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidManifest marks a manifest document that is missing its root
// element or does not parse at all.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest is the parsed, immutable course-structure document.
type Manifest struct {
	Identifier          string         `json:"identifier"`
	Version             string         `json:"version"`
	Title               string         `json:"title"`
	DefaultOrganization string         `json:"default_organization"`
	Organizations       []Organization `json:"organizations"`
	Resources           []Resource     `json:"resources"`
}

// Organization is one navigable course tree.
type Organization struct {
	Identifier string   `json:"identifier"`
	Title      string   `json:"title"`
	Items      ItemTree `json:"items"`
}

// ItemTree stores item nodes in an arena addressed by index, with
// parent/child edges held as index pairs. Pre-order traversal is a walk over
// Roots and each node's Children.
type ItemTree struct {
	Nodes []Item `json:"nodes"`
	Roots []int  `json:"roots"`
}

// Item is one node of a navigation tree. Ref holds a resource identifier
// after parsing and the resolved entry href after resolution; an item whose
// reference matches no resource keeps its original value, which lets a
// manifest carry direct hrefs without resource indirection.
type Item struct {
	Identifier      string   `json:"identifier"`
	Title           string   `json:"title"`
	Ref             string   `json:"ref,omitempty"`
	Visible         bool     `json:"visible"`
	Prerequisites   string   `json:"prerequisites,omitempty"`
	MaxTimeAllowed  string   `json:"max_time_allowed,omitempty"`
	TimeLimitAction string   `json:"time_limit_action,omitempty"`
	DataFromLMS     string   `json:"data_from_lms,omitempty"`
	Parameters      string   `json:"parameters,omitempty"`
	MasteryScore    *float64 `json:"mastery_score,omitempty"`
	Parent          int      `json:"parent"`
	Children        []int    `json:"children,omitempty"`
}

// Resource is one playable content unit.
type Resource struct {
	Identifier string   `json:"identifier"`
	Type       string   `json:"type"`
	Href       string   `json:"href"`
	Files      []string `json:"files,omitempty"`
}

// PlaylistEntry is one launchable row of the flattened play-list.
type PlaylistEntry struct {
	OrganizationID string   `json:"organization_id"`
	ItemIdentifier string   `json:"item_identifier"`
	Title          string   `json:"title"`
	Href           string   `json:"href"`
	Parameters     string   `json:"parameters,omitempty"`
	DataFromLMS    string   `json:"data_from_lms,omitempty"`
	MasteryScore   *float64 `json:"mastery_score,omitempty"`
}

type xmlManifest struct {
	XMLName       xml.Name         `xml:"manifest"`
	Identifier    string           `xml:"identifier,attr"`
	Version       string           `xml:"version,attr"`
	Title         string           `xml:"title"`
	Organizations xmlOrganizations `xml:"organizations"`
	Resources     xmlResources     `xml:"resources"`
}

type xmlOrganizations struct {
	Default       string            `xml:"default,attr"`
	Organizations []xmlOrganization `xml:"organization"`
}

type xmlOrganization struct {
	Identifier string    `xml:"identifier,attr"`
	Title      string    `xml:"title"`
	Items      []xmlItem `xml:"item"`
}

type xmlItem struct {
	Identifier      string    `xml:"identifier,attr"`
	IdentifierRef   string    `xml:"identifierref,attr"`
	IsVisible       string    `xml:"isvisible,attr"`
	Parameters      string    `xml:"parameters,attr"`
	Title           string    `xml:"title"`
	Prerequisites   string    `xml:"prerequisites"`
	MaxTimeAllowed  string    `xml:"maxtimeallowed"`
	TimeLimitAction string    `xml:"timelimitaction"`
	DataFromLMS     string    `xml:"datafromlms"`
	MasteryScore    string    `xml:"masteryscore"`
	Items           []xmlItem `xml:"item"`
}

type xmlResources struct {
	Resources []xmlResource `xml:"resource"`
}

type xmlResource struct {
	Identifier string    `xml:"identifier,attr"`
	Type       string    `xml:"type,attr"`
	Href       string    `xml:"href,attr"`
	Files      []xmlFile `xml:"file"`
}

type xmlFile struct {
	Href string `xml:"href,attr"`
}

// ParseManifest turns a manifest document into the typed tree. A document
// without a root manifest element, or one that does not parse, fails with
// ErrInvalidManifest. A manifest with zero organizations parses fine; launch
// policy is the caller's concern.
func ParseManifest(data []byte) (*Manifest, error) {
	var raw xmlManifest
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if raw.XMLName.Local != "manifest" {
		return nil, fmt.Errorf("%w: unexpected root element %q", ErrInvalidManifest, raw.XMLName.Local)
	}

	m := &Manifest{
		Identifier:          strings.TrimSpace(raw.Identifier),
		Version:             strings.TrimSpace(raw.Version),
		Title:               strings.TrimSpace(raw.Title),
		DefaultOrganization: strings.TrimSpace(raw.Organizations.Default),
	}

	for _, org := range raw.Organizations.Organizations {
		o := Organization{
			Identifier: strings.TrimSpace(org.Identifier),
			Title:      strings.TrimSpace(org.Title),
		}
		for _, it := range org.Items {
			root := appendItem(&o.Items, it, -1)
			o.Items.Roots = append(o.Items.Roots, root)
		}
		m.Organizations = append(m.Organizations, o)
	}

	if m.Title == "" {
		if org := m.organization(m.DefaultOrganization); org != nil {
			m.Title = org.Title
		} else if len(m.Organizations) > 0 {
			m.Title = m.Organizations[0].Title
		}
	}

	for _, res := range raw.Resources.Resources {
		r := Resource{
			Identifier: strings.TrimSpace(res.Identifier),
			Type:       strings.TrimSpace(res.Type),
			Href:       strings.TrimSpace(res.Href),
		}
		for _, f := range res.Files {
			if href := strings.TrimSpace(f.Href); href != "" {
				r.Files = append(r.Files, href)
			}
		}
		m.Resources = append(m.Resources, r)
	}

	return m, nil
}

// appendItem adds one xml item and its children to the arena in pre-order
// and returns the new node's index.
func appendItem(tree *ItemTree, raw xmlItem, parent int) int {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = "Item"
	}
	node := Item{
		Identifier:      strings.TrimSpace(raw.Identifier),
		Title:           title,
		Ref:             strings.TrimSpace(raw.IdentifierRef),
		Visible:         !strings.EqualFold(strings.TrimSpace(raw.IsVisible), "false"),
		Prerequisites:   strings.TrimSpace(raw.Prerequisites),
		MaxTimeAllowed:  strings.TrimSpace(raw.MaxTimeAllowed),
		TimeLimitAction: strings.TrimSpace(raw.TimeLimitAction),
		DataFromLMS:     strings.TrimSpace(raw.DataFromLMS),
		Parameters:      strings.TrimSpace(raw.Parameters),
		MasteryScore:    parseMasteryScore(raw.MasteryScore),
		Parent:          parent,
	}
	idx := len(tree.Nodes)
	tree.Nodes = append(tree.Nodes, node)
	for _, child := range raw.Items {
		childIdx := appendItem(tree, child, idx)
		tree.Nodes[idx].Children = append(tree.Nodes[idx].Children, childIdx)
	}
	return idx
}

// Invalid or absent mastery scores are undefined, not zero.
func parseMasteryScore(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Resolve rewrites every item reference that names a known resource into
// that resource's entry href, leaving unknown references untouched. It is a
// pure transform: the receiver is not mutated and the result has the same
// shape.
func (m *Manifest) Resolve() *Manifest {
	byID := make(map[string]Resource, len(m.Resources))
	for _, r := range m.Resources {
		byID[r.Identifier] = r
	}

	out := &Manifest{
		Identifier:          m.Identifier,
		Version:             m.Version,
		Title:               m.Title,
		DefaultOrganization: m.DefaultOrganization,
		Resources:           append([]Resource(nil), m.Resources...),
	}
	for _, org := range m.Organizations {
		resolved := Organization{
			Identifier: org.Identifier,
			Title:      org.Title,
			Items: ItemTree{
				Nodes: make([]Item, len(org.Items.Nodes)),
				Roots: append([]int(nil), org.Items.Roots...),
			},
		}
		copy(resolved.Items.Nodes, org.Items.Nodes)
		for i := range resolved.Items.Nodes {
			node := &resolved.Items.Nodes[i]
			node.Children = append([]int(nil), org.Items.Nodes[i].Children...)
			if res, ok := byID[node.Ref]; ok {
				node.Ref = res.Href
			}
		}
		out.Organizations = append(out.Organizations, resolved)
	}
	return out
}

// Flatten walks every organization pre-order and collects, in traversal
// order, each visible item with a resolved href. Hidden or href-less parents
// are skipped without hiding their descendants.
func (m *Manifest) Flatten() []PlaylistEntry {
	var list []PlaylistEntry
	for _, org := range m.Organizations {
		var walk func(idx int)
		walk = func(idx int) {
			node := org.Items.Nodes[idx]
			if node.Visible && node.Ref != "" {
				list = append(list, PlaylistEntry{
					OrganizationID: org.Identifier,
					ItemIdentifier: node.Identifier,
					Title:          node.Title,
					Href:           node.Ref,
					Parameters:     node.Parameters,
					DataFromLMS:    node.DataFromLMS,
					MasteryScore:   node.MasteryScore,
				})
			}
			for _, child := range node.Children {
				walk(child)
			}
		}
		for _, root := range org.Items.Roots {
			walk(root)
		}
	}
	return list
}

func (m *Manifest) organization(id string) *Organization {
	if id == "" {
		return nil
	}
	for i := range m.Organizations {
		if m.Organizations[i].Identifier == id {
			return &m.Organizations[i]
		}
	}
	return nil
}
