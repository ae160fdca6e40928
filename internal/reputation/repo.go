package reputation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aislice/aislice-backend/pkg/db/models"
	"github.com/aislice/aislice-backend/pkg/enums"
)

// Repository persists reputation records, their event log, and the
// complaint/compliment rows that feed it.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	// CreateRecordIfAbsent inserts the record unless one already exists for
	// the user. Returns false when a concurrent insert won.
	CreateRecordIfAbsent(ctx context.Context, record *models.ReputationRecord) (bool, error)
	FindRecordByUser(ctx context.Context, userID uuid.UUID) (*models.ReputationRecord, error)
	// FindRecordByUserForUpdate locks the record row for the rest of the
	// surrounding transaction, serializing folds per user.
	FindRecordByUserForUpdate(ctx context.Context, userID uuid.UUID) (*models.ReputationRecord, error)
	SaveRecord(ctx context.Context, record *models.ReputationRecord) error

	CreateEvent(ctx context.Context, event *models.ReputationEvent) error
	ListEventsByUser(ctx context.Context, userID uuid.UUID) ([]models.ReputationEvent, error)

	CreateComplaint(ctx context.Context, complaint *models.Complaint) error
	FindComplaintByID(ctx context.Context, complaintID uuid.UUID) (*models.Complaint, error)
	SaveComplaint(ctx context.Context, complaint *models.Complaint) error
	TransitionComplaint(ctx context.Context, complaintID uuid.UUID, from, to enums.ComplaintStatus) (bool, error)
	FindOldestOpenComplaint(ctx context.Context, subjectID uuid.UUID) (*models.Complaint, error)
	ListComplaintsBySubject(ctx context.Context, subjectID uuid.UUID) ([]models.Complaint, error)

	CreateCompliment(ctx context.Context, compliment *models.Compliment) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reputation repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateRecordIfAbsent(ctx context.Context, record *models.ReputationRecord) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(record)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) FindRecordByUser(ctx context.Context, userID uuid.UUID) (*models.ReputationRecord, error) {
	var record models.ReputationRecord
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) FindRecordByUserForUpdate(ctx context.Context, userID uuid.UUID) (*models.ReputationRecord, error) {
	var record models.ReputationRecord
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) SaveRecord(ctx context.Context, record *models.ReputationRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *repository) CreateEvent(ctx context.Context, event *models.ReputationEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListEventsByUser(ctx context.Context, userID uuid.UUID) ([]models.ReputationEvent, error) {
	var events []models.ReputationEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) CreateComplaint(ctx context.Context, complaint *models.Complaint) error {
	return r.db.WithContext(ctx).Create(complaint).Error
}

func (r *repository) FindComplaintByID(ctx context.Context, complaintID uuid.UUID) (*models.Complaint, error) {
	var complaint models.Complaint
	err := r.db.WithContext(ctx).First(&complaint, "id = ?", complaintID).Error
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *repository) SaveComplaint(ctx context.Context, complaint *models.Complaint) error {
	return r.db.WithContext(ctx).Save(complaint).Error
}

// TransitionComplaint moves a complaint between statuses only when it is
// still in the expected source status, so concurrent decisions cannot both
// win.
func (r *repository) TransitionComplaint(ctx context.Context, complaintID uuid.UUID, from, to enums.ComplaintStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Complaint{}).
		Where("id = ? AND status = ?", complaintID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) FindOldestOpenComplaint(ctx context.Context, subjectID uuid.UUID) (*models.Complaint, error) {
	var complaint models.Complaint
	err := r.db.WithContext(ctx).
		Where("subject_id = ? AND status = ?", subjectID, enums.ComplaintStatusOpen).
		Order("created_at ASC").
		First(&complaint).Error
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *repository) ListComplaintsBySubject(ctx context.Context, subjectID uuid.UUID) ([]models.Complaint, error) {
	var complaints []models.Complaint
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at DESC").
		Find(&complaints).Error
	if err != nil {
		return nil, err
	}
	return complaints, nil
}

func (r *repository) CreateCompliment(ctx context.Context, compliment *models.Compliment) error {
	return r.db.WithContext(ctx).Create(compliment).Error
}
