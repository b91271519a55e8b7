package fares

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collection names shared with the admin console
const (
	FareConfigurationsCollection = "fareConfigurations"
	SurgePricingCollection       = "surgePricing"
)

// FirestoreConfigStore persists fare configurations as documents
type FirestoreConfigStore struct {
	client *firestore.Client
}

// NewFirestoreConfigStore creates a fare configuration store backed by Firestore
func NewFirestoreConfigStore(client *firestore.Client) *FirestoreConfigStore {
	return &FirestoreConfigStore{client: client}
}

var _ ConfigRepository = (*FirestoreConfigStore)(nil)

func (s *FirestoreConfigStore) collection() *firestore.CollectionRef {
	return s.client.Collection(FareConfigurationsCollection)
}

// GetActive returns the configuration flagged isActive
func (s *FirestoreConfigStore) GetActive(ctx context.Context) (*FareConfiguration, error) {
	var cfg *FareConfiguration
	err := observeStore(ctx, "firestore", "get_active", FareConfigurationsCollection, func(ctx context.Context) error {
		iter := s.collection().
			Where("isActive", "==", true).
			OrderBy("createdAt", firestore.Desc).
			Limit(1).
			Documents(ctx)
		defer iter.Stop()

		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return ErrNoActiveConfiguration
		}
		if err != nil {
			return err
		}
		cfg, err = configFromDoc(doc)
		return err
	})
	if errors.Is(err, ErrNoActiveConfiguration) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active fare configuration: %w", err)
	}
	return cfg, nil
}

// Rotate reads every active document, deactivates it and creates the new
// one inside a single Firestore transaction.
func (s *FirestoreConfigStore) Rotate(ctx context.Context, cfg *FareConfiguration) (string, error) {
	newRef := s.collection().NewDoc()
	err := observeStore(ctx, "firestore", "rotate", FareConfigurationsCollection, func(ctx context.Context) error {
		return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			active, err := tx.Documents(s.collection().Where("isActive", "==", true)).GetAll()
			if err != nil {
				return fmt.Errorf("failed to read active configurations: %w", err)
			}

			for _, doc := range active {
				err := tx.Update(doc.Ref, []firestore.Update{
					{Path: "isActive", Value: false},
					{Path: "updatedAt", Value: cfg.CreatedAt},
				})
				if err != nil {
					return fmt.Errorf("failed to deactivate configuration %s: %w", doc.Ref.ID, err)
				}
			}

			stored := *cfg
			stored.IsActive = true
			return tx.Create(newRef, &stored)
		})
	})
	if err != nil {
		return "", fmt.Errorf("failed to rotate fare configuration: %w", err)
	}
	return newRef.ID, nil
}

// List returns up to limit configurations, newest first
func (s *FirestoreConfigStore) List(ctx context.Context, limit int) ([]*FareConfiguration, error) {
	var configs []*FareConfiguration
	err := observeStore(ctx, "firestore", "list", FareConfigurationsCollection, func(ctx context.Context) error {
		docs, err := s.collection().OrderBy("createdAt", firestore.Desc).Limit(limit).Documents(ctx).GetAll()
		if err != nil {
			return err
		}
		for _, doc := range docs {
			cfg, err := configFromDoc(doc)
			if err != nil {
				return err
			}
			configs = append(configs, cfg)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list fare configurations: %w", err)
	}
	return configs, nil
}

// FirestoreSurgeRuleStore persists surge rules as documents
type FirestoreSurgeRuleStore struct {
	client *firestore.Client
}

// NewFirestoreSurgeRuleStore creates a surge rule store backed by Firestore
func NewFirestoreSurgeRuleStore(client *firestore.Client) *FirestoreSurgeRuleStore {
	return &FirestoreSurgeRuleStore{client: client}
}

var _ SurgeRuleRepository = (*FirestoreSurgeRuleStore)(nil)

func (s *FirestoreSurgeRuleStore) collection() *firestore.CollectionRef {
	return s.client.Collection(SurgePricingCollection)
}

// Create adds a rule under a generated document id
func (s *FirestoreSurgeRuleStore) Create(ctx context.Context, rule *SurgePricingRule) (string, error) {
	ref := s.collection().NewDoc()
	err := observeStore(ctx, "firestore", "create", SurgePricingCollection, func(ctx context.Context) error {
		_, err := ref.Create(ctx, rule)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to create surge rule: %w", err)
	}
	return ref.ID, nil
}

// Get returns a rule by document id
func (s *FirestoreSurgeRuleStore) Get(ctx context.Context, id string) (*SurgePricingRule, error) {
	if id == "" {
		return nil, ErrSurgeRuleNotFound
	}

	var rule *SurgePricingRule
	err := observeStore(ctx, "firestore", "get", SurgePricingCollection, func(ctx context.Context) error {
		doc, err := s.collection().Doc(id).Get(ctx)
		if err != nil {
			return err
		}
		rule, err = ruleFromDoc(doc)
		return err
	})
	if isNotFound(err) {
		return nil, ErrSurgeRuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get surge rule: %w", err)
	}
	return rule, nil
}

// List returns every rule, newest first
func (s *FirestoreSurgeRuleStore) List(ctx context.Context) ([]*SurgePricingRule, error) {
	rules, err := s.queryRules(ctx, "list", s.collection().OrderBy("createdAt", firestore.Desc))
	if err != nil {
		return nil, fmt.Errorf("failed to list surge rules: %w", err)
	}
	return rules, nil
}

// Update sets every mutable field. Firestore rejects updates to missing
// documents, so a deleted rule is never recreated.
func (s *FirestoreSurgeRuleStore) Update(ctx context.Context, rule *SurgePricingRule) error {
	if rule.ID == "" {
		return ErrSurgeRuleNotFound
	}

	err := observeStore(ctx, "firestore", "update", SurgePricingCollection, func(ctx context.Context) error {
		_, err := s.collection().Doc(rule.ID).Update(ctx, []firestore.Update{
			{Path: "area", Value: rule.Area},
			{Path: "multiplier", Value: rule.Multiplier},
			{Path: "startTime", Value: rule.StartTime},
			{Path: "endTime", Value: rule.EndTime},
			{Path: "days", Value: rule.Days},
			{Path: "isActive", Value: rule.IsActive},
			{Path: "updatedAt", Value: rule.UpdatedAt},
		})
		return err
	})
	if isNotFound(err) {
		return ErrSurgeRuleNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update surge rule: %w", err)
	}
	return nil
}

// Delete removes a rule
func (s *FirestoreSurgeRuleStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrSurgeRuleNotFound
	}

	err := observeStore(ctx, "firestore", "delete", SurgePricingCollection, func(ctx context.Context) error {
		_, err := s.collection().Doc(id).Delete(ctx, firestore.Exists)
		return err
	})
	if isNotFound(err) {
		return ErrSurgeRuleNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete surge rule: %w", err)
	}
	return nil
}

// FindCandidates needs a composite index on (area, isActive, days)
func (s *FirestoreSurgeRuleStore) FindCandidates(ctx context.Context, area, weekday string) ([]*SurgePricingRule, error) {
	query := s.collection().
		Where("area", "==", area).
		Where("isActive", "==", true).
		Where("days", "array-contains", weekday)

	rules, err := s.queryRules(ctx, "find_candidates", query)
	if err != nil {
		return nil, fmt.Errorf("failed to find surge rules: %w", err)
	}
	return rules, nil
}

func (s *FirestoreSurgeRuleStore) queryRules(ctx context.Context, operation string, query firestore.Query) ([]*SurgePricingRule, error) {
	var rules []*SurgePricingRule
	err := observeStore(ctx, "firestore", operation, SurgePricingCollection, func(ctx context.Context) error {
		docs, err := query.Documents(ctx).GetAll()
		if err != nil {
			return err
		}
		for _, doc := range docs {
			rule, err := ruleFromDoc(doc)
			if err != nil {
				return err
			}
			rules = append(rules, rule)
		}
		return nil
	})
	return rules, err
}

func configFromDoc(doc *firestore.DocumentSnapshot) (*FareConfiguration, error) {
	var cfg FareConfiguration
	if err := doc.DataTo(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration %s: %w", doc.Ref.ID, err)
	}
	cfg.ID = doc.Ref.ID
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}
	return &cfg, nil
}

func ruleFromDoc(doc *firestore.DocumentSnapshot) (*SurgePricingRule, error) {
	var rule SurgePricingRule
	if err := doc.DataTo(&rule); err != nil {
		return nil, fmt.Errorf("failed to decode surge rule %s: %w", doc.Ref.ID, err)
	}
	rule.ID = doc.Ref.ID
	return &rule, nil
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
