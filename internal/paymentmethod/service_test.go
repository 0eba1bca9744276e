package paymentmethod_test

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/rentably/rent-collection/internal"
	datamodel "github.com/rentably/rent-collection/internal/core/datamodel/paymentmethod"
	processortypes "github.com/rentably/rent-collection/internal/core/datamodel/processor"
	datatenant "github.com/rentably/rent-collection/internal/core/datamodel/tenant"
	"github.com/rentably/rent-collection/internal/paymentmethod"
)

func TestPaymentMethodService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PaymentMethod Service Suite")
}

type mockRepository struct {
	methods     map[int64]*datamodel.PaymentMethod
	nextID      int64
	createError error
	deleteError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		methods: make(map[int64]*datamodel.PaymentMethod),
		nextID:  1,
	}
}

func (m *mockRepository) Create(ctx context.Context, method *datamodel.PaymentMethod, setDefault bool) error {
	if m.createError != nil {
		return m.createError
	}
	if setDefault {
		for _, existing := range m.methods {
			if existing.TenantID == method.TenantID && existing.LandlordID == method.LandlordID {
				existing.IsDefault = false
			}
		}
		method.IsDefault = true
	}
	method.ID = m.nextID
	m.nextID++
	m.methods[method.ID] = method
	return nil
}

func (m *mockRepository) GetByID(ctx context.Context, methodID int64) (*datamodel.PaymentMethod, error) {
	method, exists := m.methods[methodID]
	if !exists {
		return nil, stderrors.New("record not found")
	}
	return method, nil
}

func (m *mockRepository) ListByTenant(ctx context.Context, landlordID, tenantID int64) ([]datamodel.PaymentMethod, error) {
	var out []datamodel.PaymentMethod
	for _, method := range m.methods {
		if method.LandlordID == landlordID && method.TenantID == tenantID {
			out = append(out, *method)
		}
	}
	return out, nil
}

func (m *mockRepository) Delete(ctx context.Context, methodID int64) error {
	if m.deleteError != nil {
		return m.deleteError
	}
	delete(m.methods, methodID)
	return nil
}

type mockProcessor struct {
	customers       int
	instrument      *processortypes.Instrument
	instrumentError error
	detachError     error
	detachCalls     []string
	customerError   error
	intentError     error
}

func (m *mockProcessor) CreateCustomer(ctx context.Context, req *processortypes.CreateCustomerRequest) (*processortypes.Customer, error) {
	if m.customerError != nil {
		return nil, m.customerError
	}
	m.customers++
	return &processortypes.Customer{CustomerRef: "cus_test_1"}, nil
}

func (m *mockProcessor) CreateVerificationIntent(ctx context.Context, req *processortypes.CreateVerificationIntentRequest) (*processortypes.VerificationIntent, error) {
	if m.intentError != nil {
		return nil, m.intentError
	}
	return &processortypes.VerificationIntent{ClientSecret: "vi_secret_abc"}, nil
}

func (m *mockProcessor) GetInstrument(ctx context.Context, instrumentRef string) (*processortypes.Instrument, error) {
	if m.instrumentError != nil {
		return nil, m.instrumentError
	}
	return m.instrument, nil
}

func (m *mockProcessor) DetachInstrument(ctx context.Context, instrumentRef string) error {
	m.detachCalls = append(m.detachCalls, instrumentRef)
	return m.detachError
}

type mockDirectory struct {
	tenants      map[int64]*datatenant.Tenant
	customerRefs map[int64]string
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		tenants:      make(map[int64]*datatenant.Tenant),
		customerRefs: make(map[int64]string),
	}
}

func (m *mockDirectory) GetTenant(ctx context.Context, tenantID int64) (*datatenant.Tenant, error) {
	t, exists := m.tenants[tenantID]
	if !exists {
		return nil, stderrors.New("tenant not found")
	}
	return t, nil
}

func (m *mockDirectory) SetCustomerRef(ctx context.Context, tenantID int64, customerRef string) error {
	m.customerRefs[tenantID] = customerRef
	if t, ok := m.tenants[tenantID]; ok {
		ref := customerRef
		t.CustomerRef = &ref
	}
	return nil
}

type mockGate struct {
	linkingError error
	tenantOwners map[int64]int64
}

func (m *mockGate) AuthorizeLinking(ctx context.Context, landlordID int64) error {
	return m.linkingError
}

func (m *mockGate) OwnsTenant(ctx context.Context, landlordID, tenantID int64) error {
	owner, exists := m.tenantOwners[tenantID]
	if !exists || owner != landlordID {
		return apperrors.ErrTenantNotFound
	}
	return nil
}

var _ = Describe("PaymentMethodService", func() {
	var (
		service   *paymentmethod.Service
		repo      *mockRepository
		processor *mockProcessor
		directory *mockDirectory
		gate      *mockGate
		ctx       context.Context
	)

	const landlordID = int64(10)
	const tenantID = int64(77)

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockRepository()
		processor = &mockProcessor{
			instrument: &processortypes.Instrument{
				InstrumentRef: "ba_test_1",
				Type:          datamodel.InstrumentTypeBankAccount,
				BankName:      "First National",
				LastFour:      "6789",
			},
		}
		directory = newMockDirectory()
		directory.tenants[tenantID] = &datatenant.Tenant{
			ID:         tenantID,
			LandlordID: landlordID,
			Name:       "Jordan Pine",
		}
		gate = &mockGate{tenantOwners: map[int64]int64{tenantID: landlordID}}

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = paymentmethod.NewService(repo, processor, directory, gate, logger)
	})

	Describe("Link", func() {
		It("creates a processor customer on first link and stores the ref", func() {
			resp, err := service.Link(ctx, landlordID, &paymentmethod.LinkRequest{TenantID: tenantID})

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.ClientSecret).To(Equal("vi_secret_abc"))
			Expect(resp.CustomerRef).To(Equal("cus_test_1"))
			Expect(processor.customers).To(Equal(1))
			Expect(directory.customerRefs[tenantID]).To(Equal("cus_test_1"))
		})

		It("reuses an existing customer ref on later links", func() {
			ref := "cus_existing"
			directory.tenants[tenantID].CustomerRef = &ref

			resp, err := service.Link(ctx, landlordID, &paymentmethod.LinkRequest{TenantID: tenantID})

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.CustomerRef).To(Equal("cus_existing"))
			Expect(processor.customers).To(Equal(0))
		})

		It("answers not-found for another landlord's tenant", func() {
			_, err := service.Link(ctx, int64(99), &paymentmethod.LinkRequest{TenantID: tenantID})
			Expect(err).To(Equal(apperrors.ErrTenantNotFound))
		})

		It("rejects callers without the required subscription", func() {
			gate.linkingError = apperrors.ErrSubscriptionRequired

			_, err := service.Link(ctx, landlordID, &paymentmethod.LinkRequest{TenantID: tenantID})
			Expect(err).To(Equal(apperrors.ErrSubscriptionRequired))
		})

		It("surfaces processor outages as external errors", func() {
			processor.intentError = stderrors.New("connection refused")

			_, err := service.Link(ctx, landlordID, &paymentmethod.LinkRequest{TenantID: tenantID})

			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(apperrors.ErrorTypeExternal))
		})
	})

	Describe("Confirm", func() {
		confirmReq := func() *paymentmethod.ConfirmRequest {
			return &paymentmethod.ConfirmRequest{
				TenantID:      tenantID,
				InstrumentRef: "ba_test_1",
				CustomerRef:   "cus_test_1",
			}
		}

		It("persists a verified bank account with processor metadata", func() {
			method, err := service.Confirm(ctx, landlordID, confirmReq())

			Expect(err).NotTo(HaveOccurred())
			Expect(method.ID).NotTo(BeZero())
			Expect(method.IsVerified).To(BeTrue())
			Expect(method.BankName).To(Equal("First National"))
			Expect(method.LastFour).To(Equal("6789"))
			Expect(method.InstrumentType).To(Equal(datamodel.InstrumentTypeBankAccount))
		})

		It("rejects instrument types other than bank accounts", func() {
			processor.instrument.Type = "card"

			_, err := service.Confirm(ctx, landlordID, confirmReq())
			Expect(err).To(Equal(apperrors.ErrUnsupportedInstrument))
		})

		It("swaps the default so a tenant never has two", func() {
			req := confirmReq()
			req.SetDefault = true
			first, err := service.Confirm(ctx, landlordID, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(first.IsDefault).To(BeTrue())

			processor.instrument = &processortypes.Instrument{
				InstrumentRef: "ba_test_2",
				Type:          datamodel.InstrumentTypeBankAccount,
				BankName:      "Second State",
				LastFour:      "1234",
			}
			second := confirmReq()
			second.InstrumentRef = "ba_test_2"
			second.SetDefault = true

			replacement, err := service.Confirm(ctx, landlordID, second)
			Expect(err).NotTo(HaveOccurred())
			Expect(replacement.IsDefault).To(BeTrue())

			defaults := 0
			for _, m := range repo.methods {
				if m.IsDefault {
					defaults++
				}
			}
			Expect(defaults).To(Equal(1))
		})
	})

	Describe("Remove", func() {
		var methodID int64

		BeforeEach(func() {
			method, err := service.Confirm(ctx, landlordID, &paymentmethod.ConfirmRequest{
				TenantID:      tenantID,
				InstrumentRef: "ba_test_1",
				CustomerRef:   "cus_test_1",
			})
			Expect(err).NotTo(HaveOccurred())
			methodID = method.ID
		})

		It("detaches at the processor and deletes the row", func() {
			Expect(service.Remove(ctx, landlordID, methodID)).To(Succeed())
			Expect(processor.detachCalls).To(ConsistOf("ba_test_1"))
			Expect(repo.methods).NotTo(HaveKey(methodID))
		})

		It("still deletes locally when the detach fails", func() {
			processor.detachError = stderrors.New("gateway timeout")

			Expect(service.Remove(ctx, landlordID, methodID)).To(Succeed())
			Expect(repo.methods).NotTo(HaveKey(methodID))
		})

		It("masks another landlord's method as not-found", func() {
			err := service.Remove(ctx, int64(99), methodID)
			Expect(err).To(Equal(apperrors.ErrPaymentMethodNotFound))
			Expect(repo.methods).To(HaveKey(methodID))
		})
	})

	Describe("GetOwned", func() {
		It("returns not-found for ids that do not exist", func() {
			_, err := service.GetOwned(ctx, landlordID, 12345)
			Expect(err).To(Equal(apperrors.ErrPaymentMethodNotFound))
		})
	})
})
