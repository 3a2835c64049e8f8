// Package catalog holds the entity graph of the platform: compounds,
// proteins, pathways and effects (indications and adverse reactions),
// stored as arenas addressed by stable integer index. Relations are index
// sets, not owning references, so the cyclic back-reference graph carries
// no ownership cycles.
//
// The graph is built once at ingestion and is structurally immutable;
// filtering mutates membership sets only and cascades into every effect's
// compound subset.
package catalog

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// ErrNotFound is returned when an entity id is not in the catalog.
//
// Callers should match with errors.Is; the concrete error is a
// *NotFoundError carrying the entity kind and id.
var ErrNotFound = errors.New("not found")

// NotFoundError reports an unknown compound/indication/pathway/ADR id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// EffectKind distinguishes the two phenotypic effect flavors.
type EffectKind int

const (
	// KindIndication is a disease association.
	KindIndication EffectKind = iota
	// KindADR is an adverse drug reaction association.
	KindADR
)

func (k EffectKind) String() string {
	if k == KindADR {
		return "ADR"
	}
	return "disease"
}

// Pathogen is the tri-state pathogen-origin flag on indications.
type Pathogen int

const (
	// PathogenUnknown means no disease-group classification was loaded.
	PathogenUnknown Pathogen = iota
	// PathogenHuman marks a non-pathogenic (human-origin) indication.
	PathogenHuman
	// PathogenPositive marks a pathogen-caused indication.
	PathogenPositive
)

// Cluster is a compound's cluster assignment with an explicit unassigned
// state, set only by external clustering collaborators.
type Cluster struct {
	id       int
	assigned bool
}

// Assign sets the cluster id.
func (c *Cluster) Assign(id int) {
	c.id = id
	c.assigned = true
}

// Value returns the cluster id and whether one has been assigned.
func (c Cluster) Value() (int, bool) { return c.id, c.assigned }

// Compound is a drug or drug-like molecule. Its interaction signature
// lives in the matrix store, aligned by Index; the catalog tracks identity
// and effect membership only.
type Compound struct {
	// ID is the stable mapping-file id.
	ID int
	// Index is the dense ordinal assigned at ingestion. It aligns the
	// compound with its matrix column and neighbor list and stays valid
	// across filtering operations.
	Index int
	// Name is the human-readable compound name.
	Name string
	// Cluster is the optional cluster assignment.
	Cluster Cluster

	effects *roaring.Bitmap
}

// HasEffect reports membership in the effect with the given arena index.
func (c *Compound) HasEffect(effectIndex int) bool {
	return c.effects.Contains(uint32(effectIndex))
}

// EffectIndexes returns the arena indexes of the compound's effects.
func (c *Compound) EffectIndexes() []int {
	out := make([]int, 0, c.effects.GetCardinality())
	it := c.effects.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// Protein is one row of the signature matrix.
type Protein struct {
	Index int
	// ID is the primary identifier matching the matrix row.
	ID string
	// AltID is the secondary identifier when a remapping table was used.
	AltID string
	// Pathways holds arena indexes of pathways this protein belongs to.
	Pathways []int
}

// Pathway groups proteins and links them to effects.
type Pathway struct {
	Index int
	ID    string
	// Proteins holds arena indexes of member proteins.
	Proteins []int
	// Effects holds arena indexes of associated effects.
	Effects []int
}

// Effect generalizes Indication and ADR: a phenotype with a set of member
// compounds and optional protein/pathway subsets restricting which
// signature dimensions matter.
type Effect struct {
	Index int
	Kind  EffectKind
	ID    string
	Name  string
	// Proteins holds arena indexes of associated proteins.
	Proteins []int
	// Pathways holds arena indexes of associated pathways.
	Pathways []int
	// Pathogen is set for indications when a disease grouping is loaded.
	Pathogen Pathogen

	members *roaring.Bitmap
}

// AddMember records a compound (by ordinal) as associated with the effect.
func (e *Effect) AddMember(compoundIndex int) {
	e.members.Add(uint32(compoundIndex))
}

// HasMember reports whether the compound ordinal is a member.
func (e *Effect) HasMember(compoundIndex int) bool {
	return e.members.Contains(uint32(compoundIndex))
}

// MemberCount returns the current member count.
func (e *Effect) MemberCount() int {
	return int(e.members.GetCardinality())
}

// Members returns member compound ordinals in ascending order.
func (e *Effect) Members() []int {
	out := make([]int, 0, e.members.GetCardinality())
	it := e.members.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

type effectKey struct {
	kind EffectKind
	id   string
}

// Catalog is the entity arena.
type Catalog struct {
	Compounds []*Compound
	Proteins  []*Protein
	Pathways  []*Pathway
	Effects   []*Effect

	removed *roaring.Bitmap

	compoundByID map[int]int
	proteinByID  map[string]int
	pathwayByID  map[string]int
	effectByID   map[effectKey]int
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		removed:      roaring.New(),
		compoundByID: make(map[int]int),
		proteinByID:  make(map[string]int),
		pathwayByID:  make(map[string]int),
		effectByID:   make(map[effectKey]int),
	}
}

// AddCompound appends a compound, assigning the next dense ordinal.
func (c *Catalog) AddCompound(id int, name string) *Compound {
	cm := &Compound{
		ID:      id,
		Index:   len(c.Compounds),
		Name:    name,
		effects: roaring.New(),
	}
	c.Compounds = append(c.Compounds, cm)
	c.compoundByID[id] = cm.Index
	return cm
}

// RegisterProtein appends a protein row. Registration order must follow
// matrix row order so that protein arena indexes align with store columns.
func (c *Catalog) RegisterProtein(id, altID string) *Protein {
	p := &Protein{
		Index: len(c.Proteins),
		ID:    id,
		AltID: altID,
	}
	c.Proteins = append(c.Proteins, p)
	c.proteinByID[id] = p.Index
	return p
}

// AddPathway appends a pathway.
func (c *Catalog) AddPathway(id string) *Pathway {
	pw := &Pathway{
		Index: len(c.Pathways),
		ID:    id,
	}
	c.Pathways = append(c.Pathways, pw)
	c.pathwayByID[id] = pw.Index
	return pw
}

// addEffect appends an effect of the given kind.
func (c *Catalog) addEffect(kind EffectKind, id, name string) *Effect {
	e := &Effect{
		Index:   len(c.Effects),
		Kind:    kind,
		ID:      id,
		Name:    name,
		members: roaring.New(),
	}
	c.Effects = append(c.Effects, e)
	c.effectByID[effectKey{kind: kind, id: id}] = e.Index
	return e
}

// CompoundByID resolves a compound by its stable mapping id.
func (c *Catalog) CompoundByID(id int) (*Compound, error) {
	i, ok := c.compoundByID[id]
	if !ok {
		return nil, &NotFoundError{Kind: "compound", ID: fmt.Sprintf("%d", id)}
	}
	return c.Compounds[i], nil
}

// CompoundByName resolves a compound by exact name.
func (c *Catalog) CompoundByName(name string) (*Compound, error) {
	for _, cm := range c.Compounds {
		if cm.Name == name {
			return cm, nil
		}
	}
	return nil, &NotFoundError{Kind: "compound", ID: name}
}

// ProteinByID resolves a protein by its primary identifier.
func (c *Catalog) ProteinByID(id string) (*Protein, error) {
	i, ok := c.proteinByID[id]
	if !ok {
		return nil, &NotFoundError{Kind: "protein", ID: id}
	}
	return c.Proteins[i], nil
}

// PathwayByID resolves a pathway.
func (c *Catalog) PathwayByID(id string) (*Pathway, error) {
	i, ok := c.pathwayByID[id]
	if !ok {
		return nil, &NotFoundError{Kind: "pathway", ID: id}
	}
	return c.Pathways[i], nil
}

// Indication resolves an indication by id.
func (c *Catalog) Indication(id string) (*Effect, error) {
	return c.effect(KindIndication, id, "indication")
}

// ADR resolves an adverse drug reaction by id.
func (c *Catalog) ADR(id string) (*Effect, error) {
	return c.effect(KindADR, id, "ADR")
}

func (c *Catalog) effect(kind EffectKind, id, label string) (*Effect, error) {
	i, ok := c.effectByID[effectKey{kind: kind, id: id}]
	if !ok {
		return nil, &NotFoundError{Kind: label, ID: id}
	}
	return c.Effects[i], nil
}

// Indications returns every indication effect.
func (c *Catalog) Indications() []*Effect {
	return c.effectsOfKind(KindIndication)
}

// ADRs returns every adverse reaction effect.
func (c *Catalog) ADRs() []*Effect {
	return c.effectsOfKind(KindADR)
}

func (c *Catalog) effectsOfKind(kind EffectKind) []*Effect {
	var out []*Effect
	for _, e := range c.Effects {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// associate links a compound and an effect both ways.
func (c *Catalog) associate(cm *Compound, e *Effect) {
	e.AddMember(cm.Index)
	cm.effects.Add(uint32(e.Index))
}

// Removed reports whether the compound ordinal has been filtered out.
func (c *Catalog) Removed(i int) bool {
	return c.removed.Contains(uint32(i))
}

// Size returns the number of compounds still active, the catalog size used
// for percentage-of-catalog cutoffs.
func (c *Catalog) Size() int {
	return len(c.Compounds) - int(c.removed.GetCardinality())
}

// ActiveCompounds returns the ordinals of all non-removed compounds.
func (c *Catalog) ActiveCompounds() []int {
	out := make([]int, 0, c.Size())
	for _, cm := range c.Compounds {
		if !c.Removed(cm.Index) {
			out = append(out, cm.Index)
		}
	}
	return out
}

// Clone returns a copy sharing entity values but with independent
// membership and removal sets, so filtering one copy leaves the other
// intact. Used by benchmark variants that restrict the compound set.
func (c *Catalog) Clone() *Catalog {
	cp := &Catalog{
		Compounds:    make([]*Compound, len(c.Compounds)),
		Proteins:     c.Proteins,
		Pathways:     c.Pathways,
		Effects:      make([]*Effect, len(c.Effects)),
		removed:      c.removed.Clone(),
		compoundByID: c.compoundByID,
		proteinByID:  c.proteinByID,
		pathwayByID:  c.pathwayByID,
		effectByID:   c.effectByID,
	}
	for i, cm := range c.Compounds {
		dup := *cm
		dup.effects = cm.effects.Clone()
		cp.Compounds[i] = &dup
	}
	for i, e := range c.Effects {
		dup := *e
		dup.members = e.members.Clone()
		cp.Effects[i] = &dup
	}
	return cp
}

// RemoveCompounds marks the given ordinals removed and cascades the
// removal into every effect's member set.
func (c *Catalog) RemoveCompounds(ordinals []int) {
	rm := roaring.New()
	for _, i := range ordinals {
		rm.Add(uint32(i))
	}
	c.removed.Or(rm)
	for _, e := range c.Effects {
		e.members.AndNot(rm)
	}
}

// RemoveCompoundIDs marks compounds removed by stable mapping id. Unknown
// ids are ignored.
func (c *Catalog) RemoveCompoundIDs(ids []int) {
	var ordinals []int
	for _, id := range ids {
		if i, ok := c.compoundByID[id]; ok {
			ordinals = append(ordinals, i)
		}
	}
	c.RemoveCompounds(ordinals)
}

// RemoveZeroSignatures removes compounds whose signature is all zero and
// returns the removed ordinals.
func (c *Catalog) RemoveZeroSignatures(signature func(i int) []float64) []int {
	var ordinals []int
	for _, cm := range c.Compounds {
		if c.Removed(cm.Index) {
			continue
		}
		if allZero(signature(cm.Index)) {
			ordinals = append(ordinals, cm.Index)
		}
	}
	c.RemoveCompounds(ordinals)
	return ordinals
}

func allZero(sig []float64) bool {
	for _, s := range sig {
		if s != 0.0 {
			return false
		}
	}
	return true
}
