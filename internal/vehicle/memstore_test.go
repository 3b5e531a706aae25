package vehicle

import (
	"context"
	"slices"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/engineeye/internal/db"
	"github.com/ukydev/engineeye/internal/models"
)

// memStore is an in-memory db.VehicleCollection. Updates are applied to the
// bson form of the stored document, so a wrong field name in an update
// shows up as a lost write.
type memStore struct {
	mu   sync.Mutex
	docs map[string]bson.M
	ids  []string
}

func newMemStore() *memStore {
	return &memStore{docs: map[string]bson.M{}}
}

func (m *memStore) InsertVehicle(_ context.Context, v models.VehicleRecord) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = primitive.NewObjectID()
	m.docs[v.ID.Hex()] = toM(v)
	m.ids = append(m.ids, v.ID.Hex())
	return v.ID, nil
}

func (m *memStore) FindVehicles(_ context.Context, owner string) ([]models.VehicleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.VehicleRecord{}
	for i := len(m.ids) - 1; i >= 0; i-- {
		id := m.ids[i]
		rec := fromM(m.docs[id])
		if rec.OwnerUserID == owner {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memStore) FindVehicleByID(_ context.Context, owner, id string) (*models.VehicleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, err := m.owned(owner, id)
	if err != nil {
		return nil, err
	}
	rec := fromM(doc)
	return &rec, nil
}

func (m *memStore) UpdateVehicle(_ context.Context, owner, id string, u db.VehicleUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, err := m.owned(owner, id)
	if err != nil {
		return err
	}

	for k, v := range u.Set {
		setPath(doc, strings.Split(k, "."), v)
	}
	doc = toM(doc)
	for field, cond := range u.Pull {
		match := toM(cond)
		arr, _ := doc[field].(bson.A)
		doc[field] = slices.DeleteFunc(slices.Clone(arr), func(el any) bool {
			elm := toM(el)
			for k, v := range match {
				if elm[k] != v {
					return false
				}
			}
			return true
		})
	}
	for field, v := range u.Push {
		arr, _ := doc[field].(bson.A)
		doc[field] = append(slices.Clone(arr), v)
	}
	m.docs[id] = toM(doc)
	return nil
}

func (m *memStore) DeleteVehicle(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.owned(owner, id); err != nil {
		return err
	}
	delete(m.docs, id)
	m.ids = slices.DeleteFunc(m.ids, func(s string) bool { return s == id })
	return nil
}

func (m *memStore) owned(owner, id string) (bson.M, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, db.ErrInvalidID
	}
	doc, ok := m.docs[id]
	if !ok || doc["owner_user_id"] != owner {
		return nil, db.ErrNotFound
	}
	return doc, nil
}

func setPath(doc bson.M, path []string, v any) {
	if len(path) == 1 {
		doc[path[0]] = v
		return
	}
	child := toM(doc[path[0]])
	setPath(child, path[1:], v)
	doc[path[0]] = child
}

func toM(v any) bson.M {
	out := bson.M{}
	if v == nil {
		return out
	}
	raw, err := bson.Marshal(v)
	if err != nil {
		panic(err)
	}
	if err := bson.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return out
}

func fromM(doc bson.M) models.VehicleRecord {
	raw, err := bson.Marshal(doc)
	if err != nil {
		panic(err)
	}
	var rec models.VehicleRecord
	if err := bson.Unmarshal(raw, &rec); err != nil {
		panic(err)
	}
	return rec
}
