package postgres

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	paymentDatamodel "github.com/rentably/rent-collection/internal/core/datamodel/rentpayment"
	rentpaymentpkg "github.com/rentably/rent-collection/internal/rentpayment"
)

func TestRentPaymentRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "RentPaymentRepository Suite")
}

type SQLiteRentPayment struct {
	ID              int64      `gorm:"primaryKey"`
	LandlordID      int64      `gorm:"column:landlord_id;not null"`
	TenantID        int64      `gorm:"column:tenant_id;not null"`
	PropertyID      *int64     `gorm:"column:property_id"`
	PaymentMethodID int64      `gorm:"column:payment_method_id;not null"`
	AmountMinor     int64      `gorm:"column:amount_minor;not null"`
	FeeMinor        int64      `gorm:"column:fee_minor;not null"`
	ChargedMinor    int64      `gorm:"column:charged_minor;not null"`
	NetMinor        int64      `gorm:"column:net_minor;not null"`
	FeePayer        string     `gorm:"column:fee_payer;not null"`
	FeeVersion      int        `gorm:"column:fee_version;not null"`
	Status          string     `gorm:"column:status;default:'pending'"`
	IdempotencyKey  string     `gorm:"column:idempotency_key;uniqueIndex"`
	ProcessorRef    *string    `gorm:"column:processor_ref;uniqueIndex"`
	FailureReason   string     `gorm:"column:failure_reason"`
	PeriodStart     *time.Time `gorm:"column:period_start"`
	PeriodEnd       *time.Time `gorm:"column:period_end"`
	DueDate         *time.Time `gorm:"column:due_date"`
	Description     string     `gorm:"column:description"`
	SubmittedAt     *time.Time `gorm:"column:submitted_at"`
	SettledAt       *time.Time `gorm:"column:settled_at"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (SQLiteRentPayment) TableName() string {
	return "rent_payments"
}

var _ = Describe("RentPaymentRepository", func() {
	var (
		db   *gorm.DB
		repo rentpaymentpkg.Repository
	)

	newPayment := func(key string) *paymentDatamodel.RentPayment {
		return &paymentDatamodel.RentPayment{
			LandlordID:      1,
			TenantID:        10,
			PaymentMethodID: 5,
			AmountMinor:     150000,
			FeeMinor:        1500,
			ChargedMinor:    150000,
			NetMinor:        148500,
			FeePayer:        paymentDatamodel.FeePayerLandlord,
			FeeVersion:      1,
			Status:          paymentDatamodel.StatusPending,
			IdempotencyKey:  key,
		}
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteRentPayment{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewRentPaymentRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		err = sqlDB.Close()
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Create and GetByID", func() {
		It("persists a pending payment", func() {
			payment := newPayment("key-1")

			Expect(repo.Create(payment)).To(Succeed())
			Expect(payment.ID).NotTo(BeZero())

			loaded, err := repo.GetByID(payment.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Status).To(Equal(paymentDatamodel.StatusPending))
			Expect(loaded.NetMinor).To(Equal(int64(148500)))
		})
	})

	Describe("UpdateStatusCAS", func() {
		var payment *paymentDatamodel.RentPayment

		BeforeEach(func() {
			payment = newPayment("key-cas")
			Expect(repo.Create(payment)).To(Succeed())
		})

		It("applies an allowed transition exactly once", func() {
			ref := "op_1"
			applied, err := repo.UpdateStatusCAS(payment.ID, paymentDatamodel.StatusPending, paymentDatamodel.StatusProcessing, map[string]interface{}{
				"processor_ref": ref,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(applied).To(BeTrue())

			// Second writer expecting pending loses.
			applied, err = repo.UpdateStatusCAS(payment.ID, paymentDatamodel.StatusPending, paymentDatamodel.StatusFailed, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(applied).To(BeFalse())

			loaded, err := repo.GetByID(payment.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Status).To(Equal(paymentDatamodel.StatusProcessing))
			Expect(*loaded.ProcessorRef).To(Equal("op_1"))
		})

		It("refuses transitions the state machine does not allow", func() {
			applied, err := repo.UpdateStatusCAS(payment.ID, paymentDatamodel.StatusPending, paymentDatamodel.StatusReturned, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(applied).To(BeFalse())

			applied, err = repo.UpdateStatusCAS(payment.ID, paymentDatamodel.StatusProcessing, paymentDatamodel.StatusFailed, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(applied).To(BeFalse())
		})

		It("never moves a payment out of a terminal state", func() {
			applied, err := repo.UpdateStatusCAS(payment.ID, paymentDatamodel.StatusPending, paymentDatamodel.StatusFailed, map[string]interface{}{
				"failure_reason": "insufficient_funds",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(applied).To(BeTrue())

			for _, target := range []string{
				paymentDatamodel.StatusPending,
				paymentDatamodel.StatusProcessing,
				paymentDatamodel.StatusSucceeded,
			} {
				applied, err = repo.UpdateStatusCAS(payment.ID, paymentDatamodel.StatusFailed, target, nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(applied).To(BeFalse())
			}
		})
	})

	Describe("GetByProcessorRef", func() {
		It("finds a payment by its processor reference", func() {
			payment := newPayment("key-ref")
			Expect(repo.Create(payment)).To(Succeed())

			applied, err := repo.UpdateStatusCAS(payment.ID, paymentDatamodel.StatusPending, paymentDatamodel.StatusProcessing, map[string]interface{}{
				"processor_ref": "op_lookup",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(applied).To(BeTrue())

			loaded, err := repo.GetByProcessorRef("op_lookup")
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ID).To(Equal(payment.ID))
		})

		It("errors for unknown references", func() {
			_, err := repo.GetByProcessorRef("op_missing")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			for i := 0; i < 5; i++ {
				p := newPayment("key-list-" + string(rune('a'+i)))
				Expect(repo.Create(p)).To(Succeed())
			}
			other := newPayment("key-other")
			other.LandlordID = 2
			Expect(repo.Create(other)).To(Succeed())
		})

		It("scopes to the landlord and reports the exact total", func() {
			payments, total, err := repo.List(rentpaymentpkg.ListFilter{
				LandlordID: 1,
				Limit:      2,
				Offset:     0,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(5)))
			Expect(payments).To(HaveLen(2))
		})

		It("filters by status", func() {
			status := paymentDatamodel.StatusPending
			_, total, err := repo.List(rentpaymentpkg.ListFilter{
				LandlordID: 1,
				Status:     &status,
				Limit:      10,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(5)))

			failed := paymentDatamodel.StatusFailed
			_, total, err = repo.List(rentpaymentpkg.ListFilter{
				LandlordID: 1,
				Status:     &failed,
				Limit:      10,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(BeZero())
		})
	})

	Describe("ListStalePending", func() {
		It("returns only pending rows older than the threshold", func() {
			stale := newPayment("key-stale")
			Expect(repo.Create(stale)).To(Succeed())

			old := time.Now().UTC().Add(-time.Hour)
			Expect(db.Model(&SQLiteRentPayment{}).Where("id = ?", stale.ID).Update("created_at", old).Error).To(Succeed())

			fresh := newPayment("key-fresh")
			Expect(repo.Create(fresh)).To(Succeed())

			payments, err := repo.ListStalePending(time.Now().UTC().Add(-30*time.Minute), 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(payments).To(HaveLen(1))
			Expect(payments[0].ID).To(Equal(stale.ID))
		})
	})
})
