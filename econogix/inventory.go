package econogix

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

// ItemInstance is a concrete, uniquely-identified owned item. Its property
// list always carries exactly the owning definition's default keys, in the
// definition's order, with matching value types.
type ItemInstance struct {
	InstanceId    string         `json:"instance_id"`
	DefinitionKey string         `json:"definition_key"`
	Properties    []ItemProperty `json:"properties,omitempty"`
}

func (i *ItemInstance) clone() *ItemInstance {
	copied := &ItemInstance{
		InstanceId:    i.InstanceId,
		DefinitionKey: i.DefinitionKey,
		Properties:    make([]ItemProperty, len(i.Properties)),
	}
	copy(copied.Properties, i.Properties)
	return copied
}

func (i *ItemInstance) findProperty(key string) (int, bool) {
	for idx, property := range i.Properties {
		if property.Key == key {
			return idx, true
		}
	}
	return 0, false
}

// InventoryStore owns every live item instance. Callers only ever receive
// copies of instances and property values, never an alias into internal
// storage.
type InventoryStore struct {
	catalog    Catalog
	items      map[string]*ItemInstance
	publishers []Publisher
}

func NewInventoryStore(catalog Catalog) *InventoryStore {
	return &InventoryStore{
		catalog: catalog,
		items:   make(map[string]*ItemInstance),
	}
}

// AddPublisher registers a target for property-changed events.
func (s *InventoryStore) AddPublisher(publisher Publisher) {
	s.publishers = append(s.publishers, publisher)
}

// CreateItem creates a new instance of the definition, copying the
// definition's current default properties. When instanceId is empty a unique
// id is generated; a supplied id must not already be in use.
func (s *InventoryStore) CreateItem(definitionKey, instanceId string) (*ItemInstance, error) {
	definition, ok := s.catalog.FindItemDefinition(definitionKey)
	if !ok {
		return nil, ErrItemDefinitionNotFound
	}

	if instanceId == "" {
		instanceId = uuid.New().String()
	} else if _, exists := s.items[instanceId]; exists {
		return nil, ErrDuplicateInstanceId
	}

	item := &ItemInstance{
		InstanceId:    instanceId,
		DefinitionKey: definitionKey,
		Properties:    make([]ItemProperty, len(definition.DefaultProperties)),
	}
	copy(item.Properties, definition.DefaultProperties)

	s.items[instanceId] = item
	return item.clone(), nil
}

// DeleteItem removes the instance and reports whether it existed. Deleting an
// unknown id is a no-op, not an error.
func (s *InventoryStore) DeleteItem(instanceId string) bool {
	if _, ok := s.items[instanceId]; !ok {
		return false
	}
	delete(s.items, instanceId)
	return true
}

// GetItem returns a copy of the instance.
func (s *InventoryStore) GetItem(instanceId string) (*ItemInstance, error) {
	item, ok := s.items[instanceId]
	if !ok {
		return nil, ErrItemInstanceNotFound
	}
	return item.clone(), nil
}

// CountByDefinition counts the live instances created from the definition.
func (s *InventoryStore) CountByDefinition(definitionKey string) int {
	count := 0
	for _, item := range s.items {
		if item.DefinitionKey == definitionKey {
			count++
		}
	}
	return count
}

// GetProperty returns the current value of one property.
func (s *InventoryStore) GetProperty(instanceId, key string) (TaggedValue, error) {
	item, ok := s.items[instanceId]
	if !ok {
		return TaggedValue{}, ErrItemInstanceNotFound
	}
	idx, ok := item.findProperty(key)
	if !ok {
		return TaggedValue{}, ErrPropertyNotFound
	}
	return item.Properties[idx].Value, nil
}

// TryGetProperty is the lookup variant that reports absence without an error.
func (s *InventoryStore) TryGetProperty(instanceId, key string) (TaggedValue, bool) {
	value, err := s.GetProperty(instanceId, key)
	return value, err == nil
}

// SetProperty replaces a property value. The new value must carry the same
// discriminant as the stored one; on success a property-changed event is sent
// to the registered publishers.
func (s *InventoryStore) SetProperty(ctx context.Context, logger runtime.Logger, instanceId, key string, value TaggedValue) error {
	item, ok := s.items[instanceId]
	if !ok {
		return ErrItemInstanceNotFound
	}
	idx, ok := item.findProperty(key)
	if !ok {
		return ErrPropertyNotFound
	}
	if item.Properties[idx].Value.Type != value.Type {
		return ErrPropertyTypeMismatch
	}

	item.Properties[idx].Value = value

	if len(s.publishers) > 0 {
		event := &PublisherEvent{
			Name:      EventItemPropertyChanged,
			Id:        instanceId,
			Timestamp: time.Now().Unix(),
			Metadata: map[string]string{
				"definition_key": item.DefinitionKey,
				"property_key":   key,
			},
			Value: value.String(),
		}
		for _, publisher := range s.publishers {
			publisher.Send(ctx, logger, []*PublisherEvent{event})
		}
	}
	return nil
}

// loadItems reconciles persisted item instances against the current catalog.
// This is best-effort recovery run once at startup: broken records are
// dropped or repaired with a warning, and the load itself never fails.
func (s *InventoryStore) loadItems(logger runtime.Logger, persisted []*ItemInstance) {
	for _, record := range persisted {
		if record == nil || record.InstanceId == "" {
			logger.Warn("Dropping persisted item with empty instance id")
			continue
		}
		if _, exists := s.items[record.InstanceId]; exists {
			logger.Warn("Dropping persisted item %s: instance id already accepted", record.InstanceId)
			continue
		}
		definition, ok := s.catalog.FindItemDefinition(record.DefinitionKey)
		if !ok {
			logger.Warn("Dropping persisted item %s: definition %s no longer exists", record.InstanceId, record.DefinitionKey)
			continue
		}

		item := &ItemInstance{
			InstanceId:    record.InstanceId,
			DefinitionKey: record.DefinitionKey,
			Properties:    make([]ItemProperty, len(definition.DefaultProperties)),
		}
		copy(item.Properties, definition.DefaultProperties)

		for _, persistedProperty := range record.Properties {
			idx, ok := item.findProperty(persistedProperty.Key)
			if !ok {
				logger.Warn("Dropping property %s on item %s: unknown to definition %s", persistedProperty.Key, record.InstanceId, record.DefinitionKey)
				continue
			}
			if item.Properties[idx].Value.Type != persistedProperty.Value.Type {
				logger.Warn("Resetting property %s on item %s: type %s does not match definition default %s", persistedProperty.Key, record.InstanceId, persistedProperty.Value.Type, item.Properties[idx].Value.Type)
				continue
			}
			item.Properties[idx].Value = persistedProperty.Value
		}

		s.items[item.InstanceId] = item
	}
}

// exportItems returns copies of the live instances sorted by id.
func (s *InventoryStore) exportItems() []*ItemInstance {
	items := make([]*ItemInstance, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item.clone())
	}
	sort.Slice(items, func(i, j int) bool { return items[i].InstanceId < items[j].InstanceId })
	return items
}
