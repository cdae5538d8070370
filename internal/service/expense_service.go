package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"expense-platform/internal/domain"
	"expense-platform/internal/ocr"
	"expense-platform/internal/repository"
	"expense-platform/internal/storage"
)

var (
	ErrMissingFile     = errors.New("no receipt file")
	ErrFileType        = errors.New("file type not allowed")
	ErrInvalidFormData = errors.New("invalid form data")
	ErrExpenseNotFound = errors.New("expense not found")
	ErrInvalidStatus   = errors.New("invalid target status")
	ErrStorage         = errors.New("storage failure")
	ErrPersistence     = errors.New("persistence failure")
)

const defaultCurrency = "USD"

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".pdf":  true,
}

// SubmitInput agrupa los campos del formulario de alta de gastos. File
// debe poder rebobinarse: el pipeline lo lee dos veces.
type SubmitInput struct {
	Amount      string
	Currency    string
	Date        string
	Vendor      string
	Description string
	Filename    string
	File        io.ReadSeeker
	Size        int64
}

// SubmitResult es el gasto persistido junto con los datos de extraccion,
// que son solo informativos.
type SubmitResult struct {
	Expense domain.Expense
	OCR     *ocr.Result
}

// ExpenseService implementa el pipeline de alta de gastos y las
// transiciones de aprobacion.
type ExpenseService struct {
	logger     *zap.Logger
	expenses   repository.ExpenseRepository
	blobs      storage.BlobStore
	extractor  ocr.Extractor
	stagingDir string
}

func NewExpenseService(logger *zap.Logger, expenses repository.ExpenseRepository, blobs storage.BlobStore, extractor ocr.Extractor, stagingDir string) *ExpenseService {
	return &ExpenseService{
		logger:     logger,
		expenses:   expenses,
		blobs:      blobs,
		extractor:  extractor,
		stagingDir: stagingDir,
	}
}

// Submit valida el formulario, pasa el recibo por extraccion de texto,
// lo sube al blob store y persiste el gasto. Si la subida o la escritura
// del ledger fallan, el blob ya subido se borra de forma compensatoria;
// el archivo temporal de staging se limpia siempre. Un gasto persistido
// implica que su recibo existe en el store.
func (s *ExpenseService) Submit(ctx context.Context, user domain.User, input SubmitInput) (SubmitResult, error) {
	if user.Role != domain.RoleEmployee {
		return SubmitResult{}, ErrForbidden
	}

	filename := strings.TrimSpace(input.Filename)
	if input.File == nil || filename == "" || input.Size == 0 {
		return SubmitResult{}, ErrMissingFile
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(filename))] {
		return SubmitResult{}, ErrFileType
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(input.Amount), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return SubmitResult{}, fmt.Errorf("%w: amount must be a non-negative number", ErrInvalidFormData)
	}
	expenseDate, err := time.Parse("2006-01-02", strings.TrimSpace(input.Date))
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: invalid date format, use YYYY-MM-DD", ErrInvalidFormData)
	}
	vendor := strings.TrimSpace(input.Vendor)
	if vendor == "" {
		return SubmitResult{}, fmt.Errorf("%w: vendor is required", ErrInvalidFormData)
	}
	currency := strings.TrimSpace(input.Currency)
	if currency == "" {
		currency = defaultCurrency
	}
	sanitized := storage.SanitizeFilename(filename)
	if sanitized == "" {
		return SubmitResult{}, fmt.Errorf("%w: unusable receipt filename", ErrInvalidFormData)
	}

	// Staging temporal privado por request.
	if err := os.MkdirAll(s.stagingDir, 0o755); err != nil {
		return SubmitResult{}, fmt.Errorf("%w: create staging dir: %v", ErrStorage, err)
	}
	stageDir, err := os.MkdirTemp(s.stagingDir, "receipt-*")
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: create staging dir: %v", ErrStorage, err)
	}
	stagePath := filepath.Join(stageDir, sanitized)
	defer func() {
		if err := os.Remove(stagePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("staged receipt cleanup failed", zap.String("path", stagePath), zap.Error(err))
		}
		if err := os.Remove(stageDir); err != nil {
			s.logger.Warn("staging dir cleanup failed", zap.String("path", stageDir), zap.Error(err))
		}
	}()

	if err := writeStagedFile(stagePath, input.File); err != nil {
		s.logger.Error("stage receipt failed",
			zap.String("operation", "stage"),
			zap.String("username", user.Username),
			zap.String("filename", sanitized),
			zap.Error(err),
		)
		return SubmitResult{}, fmt.Errorf("%w: stage receipt: %v", ErrStorage, err)
	}

	// Extraccion best-effort: cualquier resultado, incluida una falla,
	// es solo metadata y nunca aborta el alta.
	var ocrResult *ocr.Result
	if res, err := s.extractor.Extract(stagePath); err != nil {
		s.logger.Warn("receipt extraction failed",
			zap.String("username", user.Username),
			zap.String("filename", sanitized),
			zap.Error(err),
		)
	} else {
		ocrResult = &res
		s.logger.Info("receipt extraction finished",
			zap.String("filename", sanitized),
			zap.String("status", res.Status),
		)
	}

	// Subida durable, releyendo el stream original desde el inicio.
	if _, err := input.File.Seek(0, io.SeekStart); err != nil {
		return SubmitResult{}, fmt.Errorf("%w: rewind upload: %v", ErrStorage, err)
	}
	locator, err := s.blobs.Upload(ctx, input.File, sanitized, user.Username)
	if err != nil {
		s.logger.Error("receipt upload failed",
			zap.String("operation", "upload"),
			zap.String("username", user.Username),
			zap.String("filename", sanitized),
			zap.Error(err),
		)
		return SubmitResult{}, fmt.Errorf("%w: upload receipt: %v", ErrStorage, err)
	}

	// Escritura del ledger como ultimo paso autoritativo.
	expense := domain.Expense{
		ID:            uuid.NewString(),
		OwnerUsername: user.Username,
		Amount:        amount,
		Currency:      currency,
		ExpenseDate:   expenseDate,
		Vendor:        vendor,
		Description:   strings.TrimSpace(input.Description),
		ReceiptPath:   locator,
		Status:        domain.StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.expenses.Create(ctx, expense); err != nil {
		s.logger.Error("expense persist failed",
			zap.String("operation", "persist"),
			zap.String("username", user.Username),
			zap.String("filename", sanitized),
			zap.Error(err),
		)
		// Borrado compensatorio del blob ya subido.
		if delErr := s.blobs.Delete(ctx, locator); delErr != nil {
			s.logger.Error("compensating blob delete failed",
				zap.String("locator", locator),
				zap.Error(delErr),
			)
		}
		return SubmitResult{}, fmt.Errorf("%w: persist expense: %v", ErrPersistence, err)
	}

	return SubmitResult{Expense: expense, OCR: ocrResult}, nil
}

// Transition aplica una decision de aprobacion sobre un gasto. Toda
// transicion hacia approved o rejected es valida desde cualquier estado
// y repetirla es un exito sin efecto.
func (s *ExpenseService) Transition(ctx context.Context, user domain.User, expenseID, target string) (domain.Expense, error) {
	if user.Role != domain.RoleAdmin {
		return domain.Expense{}, ErrForbidden
	}
	if target != domain.StatusApproved && target != domain.StatusRejected {
		return domain.Expense{}, ErrInvalidStatus
	}
	// Un id malformado se reporta igual que uno inexistente.
	if _, err := uuid.Parse(expenseID); err != nil {
		return domain.Expense{}, ErrExpenseNotFound
	}

	expense, err := s.expenses.GetByID(ctx, expenseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Expense{}, ErrExpenseNotFound
		}
		return domain.Expense{}, err
	}
	if expense.Status == target {
		return expense, nil
	}

	if err := s.expenses.UpdateStatus(ctx, expenseID, target); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Expense{}, ErrExpenseNotFound
		}
		s.logger.Error("expense status update failed",
			zap.String("expense_id", expenseID),
			zap.String("target", target),
			zap.Error(err),
		)
		return domain.Expense{}, fmt.Errorf("%w: update status: %v", ErrPersistence, err)
	}
	expense.Status = target
	return expense, nil
}

// ListForOwner devuelve los gastos del usuario, mas recientes primero.
func (s *ExpenseService) ListForOwner(ctx context.Context, user domain.User) ([]domain.Expense, error) {
	return s.expenses.ListByOwner(ctx, user.Username)
}

// ListAll devuelve los gastos de todos los usuarios. Solo admins.
func (s *ExpenseService) ListAll(ctx context.Context, user domain.User) ([]domain.Expense, error) {
	if user.Role != domain.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.expenses.ListAll(ctx)
}

func writeStagedFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
