package nats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poundtrades/catalog-service/internal/listing/domain"
	"github.com/poundtrades/catalog-service/internal/platform/logger"
)

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, "poundtrades.listings.update", SubjectFor(domain.ChangeEvent{Table: domain.TableListings, Op: domain.OpUpdate}))
	assert.Equal(t, "poundtrades.favorites.insert", SubjectFor(domain.ChangeEvent{Table: domain.TableFavorites, Op: domain.OpInsert}))
}

func TestSubscriberHandleAppliesForeignEvents(t *testing.T) {
	s := &Subscriber{origin: "node-a", logger: logger.NewNop()}

	event := domain.ChangeEvent{
		Table:   domain.TableListings,
		Op:      domain.OpDelete,
		ID:      "lst-1",
		OwnerID: "owner-1",
		Origin:  "node-b",
		At:      time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)

	var applied []domain.ChangeEvent
	s.handle(SubjectFor(event), data, func(e domain.ChangeEvent) {
		applied = append(applied, e)
	})
	require.Len(t, applied, 1)
	assert.Equal(t, "lst-1", applied[0].ID)
}

func TestSubscriberHandleDropsOwnEcho(t *testing.T) {
	s := &Subscriber{origin: "node-a", logger: logger.NewNop()}

	event := domain.ChangeEvent{Table: domain.TableListings, Op: domain.OpInsert, ID: "lst-1", Origin: "node-a"}
	data, err := json.Marshal(event)
	require.NoError(t, err)

	s.handle(SubjectFor(event), data, func(domain.ChangeEvent) {
		t.Fatal("own-origin event must not be applied")
	})
}

func TestSubscriberHandleDropsMalformed(t *testing.T) {
	s := &Subscriber{origin: "node-a", logger: logger.NewNop()}
	s.handle("poundtrades.listings.insert", []byte("{not json"), func(domain.ChangeEvent) {
		t.Fatal("malformed event must not be applied")
	})
}
