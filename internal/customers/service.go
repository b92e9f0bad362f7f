package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fiberdesk/fiberdesk/internal/shared"
)

var validate = validator.New()

// RepositoryPort defines data access methods for customers.
type RepositoryPort interface {
	Create(ctx context.Context, accountNo string, input CreateCustomerInput) (*Customer, error)
	Get(ctx context.Context, id int64) (*Customer, error)
	List(ctx context.Context, filter CustomerFilter) ([]Customer, error)
	Update(ctx context.Context, id int64, input UpdateCustomerInput) (*Customer, error)
	Deactivate(ctx context.Context, id int64) error
	AddPhoneNumber(ctx context.Context, customerID int64, phone PhoneNumber) (*PhoneNumber, error)
	RemovePhoneNumber(ctx context.Context, customerID, phoneID int64) error
	AddEmergencyContact(ctx context.Context, customerID int64, contact EmergencyContact) (*EmergencyContact, error)
	RemoveEmergencyContact(ctx context.Context, customerID, contactID int64) error
	NextAccountNo(ctx context.Context) (string, error)
}

// Service handles subscriber account business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

var validCustomerStatuses = map[string]bool{
	StatusActive: true, StatusSuspended: true, StatusInactive: true,
}

// Create validates and registers a subscriber.
func (s *Service) Create(ctx context.Context, input CreateCustomerInput) (*Customer, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name required", shared.ErrValidation)
	}
	if input.ConnectionType == "" {
		input.ConnectionType = "fiber"
	}
	if !ConnectionTypes[input.ConnectionType] {
		return nil, fmt.Errorf("%w: unknown connection type %q", shared.ErrValidation, input.ConnectionType)
	}
	if err := validate.Var(input.Email, "omitempty,email"); err != nil {
		return nil, fmt.Errorf("%w: invalid email %q", shared.ErrValidation, input.Email)
	}
	for i, phone := range input.PhoneNumbers {
		if phone.Phone == "" {
			return nil, fmt.Errorf("%w: phone number %d is empty", shared.ErrValidation, i)
		}
	}

	accountNo, err := s.repo.NextAccountNo(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.Create(ctx, accountNo, input)
	if err != nil {
		return nil, err
	}
	s.record(ctx, shared.AuditCreate, c.ID, map[string]any{"account_no": accountNo, "name": input.Name})
	return c, nil
}

// Get fetches one customer.
func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: customer %d", shared.ErrNotFound, id)
	}
	return c, err
}

// List returns customers matching the filter.
func (s *Service) List(ctx context.Context, filter CustomerFilter) ([]Customer, error) {
	if filter.Status != "" && !validCustomerStatuses[filter.Status] {
		return nil, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, filter.Status)
	}
	return s.repo.List(ctx, filter)
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id int64, input UpdateCustomerInput) (*Customer, error) {
	if input.Status != nil && !validCustomerStatuses[*input.Status] {
		return nil, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, *input.Status)
	}
	if input.ConnectionType != nil && !ConnectionTypes[*input.ConnectionType] {
		return nil, fmt.Errorf("%w: unknown connection type %q", shared.ErrValidation, *input.ConnectionType)
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", shared.ErrValidation)
	}
	if input.Email != nil {
		if err := validate.Var(*input.Email, "omitempty,email"); err != nil {
			return nil, fmt.Errorf("%w: invalid email %q", shared.ErrValidation, *input.Email)
		}
	}
	c, err := s.repo.Update(ctx, id, input)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: customer %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	s.record(ctx, shared.AuditUpdate, id, nil)
	return c, nil
}

// Deactivate flips the account to inactive. Billing history stays.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	err := s.repo.Deactivate(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: customer %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return err
	}
	s.record(ctx, shared.AuditUpdate, id, map[string]any{"status": StatusInactive})
	return nil
}

// AddPhoneNumber attaches a phone number.
func (s *Service) AddPhoneNumber(ctx context.Context, customerID int64, phone PhoneNumber) (*PhoneNumber, error) {
	if phone.Phone == "" {
		return nil, fmt.Errorf("%w: phone required", shared.ErrValidation)
	}
	if phone.Label == "" {
		phone.Label = "mobile"
	}
	if _, err := s.Get(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.AddPhoneNumber(ctx, customerID, phone)
}

// RemovePhoneNumber detaches a phone number.
func (s *Service) RemovePhoneNumber(ctx context.Context, customerID, phoneID int64) error {
	err := s.repo.RemovePhoneNumber(ctx, customerID, phoneID)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: phone %d", shared.ErrNotFound, phoneID)
	}
	return err
}

// AddEmergencyContact attaches an emergency contact.
func (s *Service) AddEmergencyContact(ctx context.Context, customerID int64, contact EmergencyContact) (*EmergencyContact, error) {
	if contact.Name == "" || contact.Phone == "" {
		return nil, fmt.Errorf("%w: name and phone required", shared.ErrValidation)
	}
	if _, err := s.Get(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.AddEmergencyContact(ctx, customerID, contact)
}

// RemoveEmergencyContact detaches an emergency contact.
func (s *Service) RemoveEmergencyContact(ctx context.Context, customerID, contactID int64) error {
	err := s.repo.RemoveEmergencyContact(ctx, customerID, contactID)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: contact %d", shared.ErrNotFound, contactID)
	}
	return err
}

func (s *Service) record(ctx context.Context, action string, id int64, details map[string]any) {
	if s.audit == nil {
		return
	}
	actor := shared.ActorFromContext(ctx)
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Resource: "customers",
		Entity:   "customer",
		EntityID: fmt.Sprint(id),
		Details:  details,
		IP:       actor.IP,
	})
}
