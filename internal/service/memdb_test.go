package service

import (
	"context"
	stderrors "errors"
	"sort"

	"metapress/internal/models"
)

var errBoom = stderrors.New("boom")

// memDB is an in-memory stand-in for the three stores. A unit of work
// snapshots the whole state and restores it on rollback, so tests observe
// the same all-or-nothing behavior as a real transaction.
type memDB struct {
	nodes    map[int64]models.Node
	links    map[[2]int64]bool // {cid, mid}
	contents map[int64]models.Content
	comments map[int64]int // cid -> number of comments
	fields   map[int64]int // cid -> number of fields
	nextMid  int64
	nextCid  int64

	// failOn names a store method ("Nodes.Insert", "Commit", ...) that
	// returns errBoom when called.
	failOn    string
	writes    int
	commits   int
	rollbacks int
}

func newMemDB() *memDB {
	return &memDB{
		nodes:    map[int64]models.Node{},
		links:    map[[2]int64]bool{},
		contents: map[int64]models.Content{},
		comments: map[int64]int{},
		fields:   map[int64]int{},
	}
}

type memState struct {
	nodes    map[int64]models.Node
	links    map[[2]int64]bool
	contents map[int64]models.Content
	comments map[int64]int
	fields   map[int64]int
	nextMid  int64
	nextCid  int64
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m *memDB) snapshot() memState {
	return memState{
		nodes: cloneMap(m.nodes), links: cloneMap(m.links), contents: cloneMap(m.contents),
		comments: cloneMap(m.comments), fields: cloneMap(m.fields),
		nextMid: m.nextMid, nextCid: m.nextCid,
	}
}

func (m *memDB) restore(s memState) {
	m.nodes, m.links, m.contents = s.nodes, s.links, s.contents
	m.comments, m.fields = s.comments, s.fields
	m.nextMid, m.nextCid = s.nextMid, s.nextCid
}

func (m *memDB) fail(op string) error {
	if m.failOn == op {
		return errBoom
	}
	return nil
}

// Begin implements Beginner.
func (m *memDB) Begin(ctx context.Context) (*UnitOfWork, error) {
	if err := m.fail("Begin"); err != nil {
		return nil, err
	}
	snap := m.snapshot()
	done := false
	return NewUnitOfWork(memNodes{m}, memLinks{m}, memContents{m},
		func() error {
			if err := m.fail("Commit"); err != nil {
				return err
			}
			done = true
			m.commits++
			return nil
		},
		func() error {
			if done {
				return nil
			}
			done = true
			m.restore(snap)
			m.rollbacks++
			return nil
		},
	), nil
}

// addNode stores a fixture node directly and returns its id.
func (m *memDB) addNode(kind models.Kind, name string, parent int64, order int) int64 {
	m.nextMid++
	m.nodes[m.nextMid] = models.Node{
		ID: m.nextMid, Kind: kind, Name: name, Slug: name, Parent: parent, Order: order,
	}
	return m.nextMid
}

func (m *memDB) node(id int64) models.Node {
	return m.nodes[id]
}

func (m *memDB) linkCount(mid int64) int {
	n := 0
	for k := range m.links {
		if k[1] == mid {
			n++
		}
	}
	return n
}

func (m *memDB) sortedNodes(kind models.Kind) []models.Node {
	var out []models.Node
	for _, n := range m.nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Parent != b.Parent {
			return a.Parent < b.Parent
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})
	return out
}

type memNodes struct{ m *memDB }

func (s memNodes) Exists(ctx context.Context, kind models.Kind, id int64) (bool, error) {
	if err := s.m.fail("Nodes.Exists"); err != nil {
		return false, err
	}
	n, ok := s.m.nodes[id]
	return ok && n.Kind == kind, nil
}

func (s memNodes) NameExists(ctx context.Context, kind models.Kind, name string, excludeID int64) (bool, error) {
	if err := s.m.fail("Nodes.NameExists"); err != nil {
		return false, err
	}
	for _, n := range s.m.nodes {
		if n.Kind == kind && n.Name == name && n.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s memNodes) SlugExists(ctx context.Context, kind models.Kind, slug string, excludeID int64) (bool, error) {
	if err := s.m.fail("Nodes.SlugExists"); err != nil {
		return false, err
	}
	for _, n := range s.m.nodes {
		if n.Kind == kind && n.Slug == slug && n.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s memNodes) MaxOrder(ctx context.Context, kind models.Kind, parent int64) (int, error) {
	if err := s.m.fail("Nodes.MaxOrder"); err != nil {
		return 0, err
	}
	highest := 0
	for _, n := range s.m.nodes {
		if n.Kind == kind && n.Parent == parent && n.Order > highest {
			highest = n.Order
		}
	}
	return highest, nil
}

func (s memNodes) Insert(ctx context.Context, n *models.Node) (int64, error) {
	if err := s.m.fail("Nodes.Insert"); err != nil {
		return 0, err
	}
	s.m.writes++
	s.m.nextMid++
	row := *n
	row.ID = s.m.nextMid
	s.m.nodes[row.ID] = row
	return row.ID, nil
}

func (s memNodes) Update(ctx context.Context, n *models.Node) error {
	if err := s.m.fail("Nodes.Update"); err != nil {
		return err
	}
	s.m.writes++
	cur, ok := s.m.nodes[n.ID]
	if !ok || cur.Kind != n.Kind {
		return nil
	}
	cur.Name, cur.Slug, cur.Description, cur.Parent, cur.Order = n.Name, n.Slug, n.Description, n.Parent, n.Order
	s.m.nodes[n.ID] = cur
	return nil
}

func (s memNodes) Delete(ctx context.Context, kind models.Kind, id int64) error {
	if err := s.m.fail("Nodes.Delete"); err != nil {
		return err
	}
	s.m.writes++
	if n, ok := s.m.nodes[id]; ok && n.Kind == kind {
		delete(s.m.nodes, id)
	}
	return nil
}

func (s memNodes) Get(ctx context.Context, kind models.Kind, id int64) (*models.Node, error) {
	if err := s.m.fail("Nodes.Get"); err != nil {
		return nil, err
	}
	n, ok := s.m.nodes[id]
	if !ok || n.Kind != kind {
		return nil, nil
	}
	return &n, nil
}

func (s memNodes) List(ctx context.Context, kind models.Kind) ([]models.Node, error) {
	if err := s.m.fail("Nodes.List"); err != nil {
		return nil, err
	}
	return s.m.sortedNodes(kind), nil
}

func (s memNodes) Page(ctx context.Context, kind models.Kind, limit, offset int) ([]models.Node, error) {
	if err := s.m.fail("Nodes.Page"); err != nil {
		return nil, err
	}
	all := s.m.sortedNodes(kind)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s memNodes) Count(ctx context.Context, kind models.Kind) (int, error) {
	if err := s.m.fail("Nodes.Count"); err != nil {
		return 0, err
	}
	return len(s.m.sortedNodes(kind)), nil
}

func (s memNodes) Reparent(ctx context.Context, kind models.Kind, from, to int64) (int64, error) {
	if err := s.m.fail("Nodes.Reparent"); err != nil {
		return 0, err
	}
	s.m.writes++
	var moved int64
	for id, n := range s.m.nodes {
		if n.Kind == kind && n.Parent == from {
			n.Parent = to
			s.m.nodes[id] = n
			moved++
		}
	}
	return moved, nil
}

func (s memNodes) AdjustCount(ctx context.Context, kind models.Kind, id int64, delta int) error {
	if err := s.m.fail("Nodes.AdjustCount"); err != nil {
		return err
	}
	s.m.writes++
	n, ok := s.m.nodes[id]
	if !ok || n.Kind != kind {
		return nil
	}
	n.Count += delta
	if n.Count < 0 {
		n.Count = 0
	}
	s.m.nodes[id] = n
	return nil
}

func (s memNodes) RecountTags(ctx context.Context) error {
	if err := s.m.fail("Nodes.RecountTags"); err != nil {
		return err
	}
	s.m.writes++
	for id, n := range s.m.nodes {
		if n.Kind != models.KindTag {
			continue
		}
		n.Count = 0
		for k := range s.m.links {
			if k[1] != id {
				continue
			}
			if c, ok := s.m.contents[k[0]]; ok && c.IsPublished() {
				n.Count++
			}
		}
		s.m.nodes[id] = n
	}
	return nil
}

func (s memNodes) DeleteUnusedTags(ctx context.Context) ([]int64, error) {
	if err := s.m.fail("Nodes.DeleteUnusedTags"); err != nil {
		return nil, err
	}
	s.m.writes++
	var ids []int64
	for id, n := range s.m.nodes {
		if n.Kind == models.KindTag && n.Count == 0 {
			delete(s.m.nodes, id)
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type memLinks struct{ m *memDB }

func (s memLinks) Link(ctx context.Context, cid, mid int64) error {
	if err := s.m.fail("Links.Link"); err != nil {
		return err
	}
	s.m.writes++
	s.m.links[[2]int64{cid, mid}] = true
	return nil
}

func (s memLinks) Unlink(ctx context.Context, cid, mid int64) error {
	if err := s.m.fail("Links.Unlink"); err != nil {
		return err
	}
	s.m.writes++
	delete(s.m.links, [2]int64{cid, mid})
	return nil
}

func (s memLinks) ListByContent(ctx context.Context, cid int64) ([]models.Link, error) {
	if err := s.m.fail("Links.ListByContent"); err != nil {
		return nil, err
	}
	var out []models.Link
	for k := range s.m.links {
		if k[0] != cid {
			continue
		}
		l := models.Link{ContentID: cid, NodeID: k[1]}
		if n, ok := s.m.nodes[k[1]]; ok {
			l.Kind = n.Kind
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out, nil
}

func (s memLinks) DeleteByNode(ctx context.Context, mid int64) (int64, error) {
	if err := s.m.fail("Links.DeleteByNode"); err != nil {
		return 0, err
	}
	s.m.writes++
	var n int64
	for k := range s.m.links {
		if k[1] == mid {
			delete(s.m.links, k)
			n++
		}
	}
	return n, nil
}

func (s memLinks) DeleteByContent(ctx context.Context, cid int64) error {
	if err := s.m.fail("Links.DeleteByContent"); err != nil {
		return err
	}
	s.m.writes++
	for k := range s.m.links {
		if k[0] == cid {
			delete(s.m.links, k)
		}
	}
	return nil
}

func (s memLinks) NodesForContent(ctx context.Context, cid int64, kind models.Kind) ([]models.Node, error) {
	if err := s.m.fail("Links.NodesForContent"); err != nil {
		return nil, err
	}
	var out []models.Node
	for _, n := range s.m.sortedNodes(kind) {
		if s.m.links[[2]int64{cid, n.ID}] {
			out = append(out, n)
		}
	}
	return out, nil
}

type memContents struct{ m *memDB }

func (s memContents) get(cid int64, types ...models.ContentType) (*models.Content, error) {
	c, ok := s.m.contents[cid]
	if !ok {
		return nil, nil
	}
	for _, t := range types {
		if c.Type == t {
			return &c, nil
		}
	}
	return nil, nil
}

func (s memContents) GetPost(ctx context.Context, cid int64) (*models.Content, error) {
	if err := s.m.fail("Contents.GetPost"); err != nil {
		return nil, err
	}
	return s.get(cid, models.ContentTypePost)
}

func (s memContents) GetDeletable(ctx context.Context, cid int64) (*models.Content, error) {
	if err := s.m.fail("Contents.GetDeletable"); err != nil {
		return nil, err
	}
	return s.get(cid, models.ContentTypePost, models.ContentTypePostDraft)
}

func (s memContents) Insert(ctx context.Context, c *models.Content) (int64, error) {
	if err := s.m.fail("Contents.Insert"); err != nil {
		return 0, err
	}
	s.m.writes++
	s.m.nextCid++
	row := *c
	row.ID = s.m.nextCid
	s.m.contents[row.ID] = row
	return row.ID, nil
}

func (s memContents) Delete(ctx context.Context, cid int64) error {
	if err := s.m.fail("Contents.Delete"); err != nil {
		return err
	}
	s.m.writes++
	delete(s.m.contents, cid)
	return nil
}

func (s memContents) ListByType(ctx context.Context, t models.ContentType, limit, offset int) ([]models.Content, error) {
	if err := s.m.fail("Contents.ListByType"); err != nil {
		return nil, err
	}
	var all []models.Content
	for _, c := range s.m.contents {
		if c.Type == t {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Created != all[j].Created {
			return all[i].Created > all[j].Created
		}
		return all[i].ID > all[j].ID
	})
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s memContents) CountByType(ctx context.Context, t models.ContentType) (int, error) {
	if err := s.m.fail("Contents.CountByType"); err != nil {
		return 0, err
	}
	n := 0
	for _, c := range s.m.contents {
		if c.Type == t {
			n++
		}
	}
	return n, nil
}

func (s memContents) DeleteComments(ctx context.Context, cid int64) (int64, error) {
	if err := s.m.fail("Contents.DeleteComments"); err != nil {
		return 0, err
	}
	s.m.writes++
	n := s.m.comments[cid]
	delete(s.m.comments, cid)
	return int64(n), nil
}

func (s memContents) DetachAttachments(ctx context.Context, cid int64) (int64, error) {
	if err := s.m.fail("Contents.DetachAttachments"); err != nil {
		return 0, err
	}
	s.m.writes++
	var n int64
	for id, c := range s.m.contents {
		if c.Type == models.ContentTypeAttachment && c.Parent == cid {
			c.Parent = 0
			c.Status = models.ContentStatusPublish
			s.m.contents[id] = c
			n++
		}
	}
	return n, nil
}

func (s memContents) DeleteFields(ctx context.Context, cid int64) error {
	if err := s.m.fail("Contents.DeleteFields"); err != nil {
		return err
	}
	s.m.writes++
	delete(s.m.fields, cid)
	return nil
}

func (s memContents) DraftsOf(ctx context.Context, cid int64) ([]int64, error) {
	if err := s.m.fail("Contents.DraftsOf"); err != nil {
		return nil, err
	}
	var ids []int64
	for id, c := range s.m.contents {
		if c.Type == models.ContentTypePostDraft && c.Parent == cid {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
