package fares

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockConfigRepository struct {
	mock.Mock
}

func (m *MockConfigRepository) GetActive(ctx context.Context) (*FareConfiguration, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*FareConfiguration), args.Error(1)
}

func (m *MockConfigRepository) Rotate(ctx context.Context, cfg *FareConfiguration) (string, error) {
	args := m.Called(ctx, cfg)
	return args.String(0), args.Error(1)
}

func (m *MockConfigRepository) List(ctx context.Context, limit int) ([]*FareConfiguration, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*FareConfiguration), args.Error(1)
}

type MockSurgeRuleRepository struct {
	mock.Mock
}

func (m *MockSurgeRuleRepository) Create(ctx context.Context, rule *SurgePricingRule) (string, error) {
	args := m.Called(ctx, rule)
	return args.String(0), args.Error(1)
}

func (m *MockSurgeRuleRepository) Get(ctx context.Context, id string) (*SurgePricingRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SurgePricingRule), args.Error(1)
}

func (m *MockSurgeRuleRepository) List(ctx context.Context) ([]*SurgePricingRule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*SurgePricingRule), args.Error(1)
}

func (m *MockSurgeRuleRepository) Update(ctx context.Context, rule *SurgePricingRule) error {
	return m.Called(ctx, rule).Error(0)
}

func (m *MockSurgeRuleRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSurgeRuleRepository) FindCandidates(ctx context.Context, area, weekday string) ([]*SurgePricingRule, error) {
	args := m.Called(ctx, area, weekday)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*SurgePricingRule), args.Error(1)
}
