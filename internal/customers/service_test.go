package customers

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fiberdesk/fiberdesk/internal/shared"
	_ "github.com/fiberdesk/fiberdesk/testing"
)

type mockRepo struct {
	customers map[int64]*Customer
	nextID    int64
}

func newMockRepo() *mockRepo { return &mockRepo{customers: map[int64]*Customer{}} }

func (m *mockRepo) Create(ctx context.Context, accountNo string, input CreateCustomerInput) (*Customer, error) {
	m.nextID++
	c := &Customer{
		ID: m.nextID, AccountNo: accountNo, Name: input.Name, Email: input.Email,
		Status: StatusActive, ConnectionType: input.ConnectionType,
	}
	for _, phone := range input.PhoneNumbers {
		m.nextID++
		phone.ID = m.nextID
		phone.CustomerID = c.ID
		c.PhoneNumbers = append(c.PhoneNumbers, phone)
	}
	m.customers[c.ID] = c
	return c, nil
}

func (m *mockRepo) Get(ctx context.Context, id int64) (*Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *mockRepo) List(ctx context.Context, filter CustomerFilter) ([]Customer, error) {
	out := make([]Customer, 0)
	for _, c := range m.customers {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockRepo) Update(ctx context.Context, id int64, input UpdateCustomerInput) (*Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	if input.Name != nil {
		c.Name = *input.Name
	}
	if input.Status != nil {
		c.Status = *input.Status
	}
	return c, nil
}

func (m *mockRepo) Deactivate(ctx context.Context, id int64) error {
	c, ok := m.customers[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = StatusInactive
	return nil
}

func (m *mockRepo) AddPhoneNumber(ctx context.Context, customerID int64, phone PhoneNumber) (*PhoneNumber, error) {
	c, ok := m.customers[customerID]
	if !ok {
		return nil, ErrNotFound
	}
	if phone.IsPrimary {
		for i := range c.PhoneNumbers {
			c.PhoneNumbers[i].IsPrimary = false
		}
	}
	m.nextID++
	phone.ID = m.nextID
	phone.CustomerID = customerID
	c.PhoneNumbers = append(c.PhoneNumbers, phone)
	return &phone, nil
}

func (m *mockRepo) RemovePhoneNumber(ctx context.Context, customerID, phoneID int64) error {
	c, ok := m.customers[customerID]
	if !ok {
		return ErrNotFound
	}
	for i, p := range c.PhoneNumbers {
		if p.ID == phoneID {
			c.PhoneNumbers = append(c.PhoneNumbers[:i], c.PhoneNumbers[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockRepo) AddEmergencyContact(ctx context.Context, customerID int64, contact EmergencyContact) (*EmergencyContact, error) {
	c, ok := m.customers[customerID]
	if !ok {
		return nil, ErrNotFound
	}
	m.nextID++
	contact.ID = m.nextID
	contact.CustomerID = customerID
	c.EmergencyContacts = append(c.EmergencyContacts, contact)
	return &contact, nil
}

func (m *mockRepo) RemoveEmergencyContact(ctx context.Context, customerID, contactID int64) error {
	c, ok := m.customers[customerID]
	if !ok {
		return ErrNotFound
	}
	for i, ec := range c.EmergencyContacts {
		if ec.ID == contactID {
			c.EmergencyContacts = append(c.EmergencyContacts[:i], c.EmergencyContacts[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockRepo) NextAccountNo(ctx context.Context) (string, error) {
	return fmt.Sprintf("ACC-2026-%05d", m.nextID+1), nil
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	_, err := svc.Create(context.Background(), CreateCustomerInput{Name: "  "})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateDefaultsConnectionType(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	c, err := svc.Create(context.Background(), CreateCustomerInput{Name: "Wanjiku Estates"})
	require.NoError(t, err)
	require.Equal(t, "fiber", c.ConnectionType)
	require.Equal(t, StatusActive, c.Status)
	require.NotEmpty(t, c.AccountNo)
}

func TestCreateRejectsMalformedEmail(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	_, err := svc.Create(context.Background(), CreateCustomerInput{
		Name: "Wanjiku Estates", Email: "not-an-email",
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRejectsUnknownConnectionType(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	_, err := svc.Create(context.Background(), CreateCustomerInput{
		Name: "Wanjiku Estates", ConnectionType: "carrier-pigeon",
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeactivateIsSoft(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	c, err := svc.Create(context.Background(), CreateCustomerInput{Name: "Mama Njeri Shop"})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), c.ID))

	got, err := svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, StatusInactive, got.Status)
}

func TestNewPrimaryPhoneDemotesOld(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	c, err := svc.Create(context.Background(), CreateCustomerInput{
		Name:         "Harbor House",
		PhoneNumbers: []PhoneNumber{{Phone: "+254700000001", IsPrimary: true}},
	})
	require.NoError(t, err)

	_, err = svc.AddPhoneNumber(context.Background(), c.ID, PhoneNumber{
		Phone: "+254700000002", IsPrimary: true,
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	primaries := 0
	for _, p := range got.PhoneNumbers {
		if p.IsPrimary {
			primaries++
			require.Equal(t, "+254700000002", p.Phone)
		}
	}
	require.Equal(t, 1, primaries)
}

func TestAddContactToMissingCustomer(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	_, err := svc.AddEmergencyContact(context.Background(), 42, EmergencyContact{
		Name: "Next of kin", Phone: "+254711000000",
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}
