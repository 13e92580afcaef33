package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fizyostok/stok-api/internal/application/ports"
	"github.com/fizyostok/stok-api/internal/application/querycache"
	"github.com/fizyostok/stok-api/internal/domain"
	"github.com/fizyostok/stok-api/internal/domain/entity"
	"github.com/fizyostok/stok-api/internal/domain/ledger"
	"github.com/fizyostok/stok-api/internal/domain/repository"
	"github.com/fizyostok/stok-api/pkg/logger"
)

// DefaultConfirmThreshold cantidad a partir de la cual un movimiento pide confirmación.
const DefaultConfirmThreshold = 50

// mutationGroups recursos a invalidar tras cualquier movimiento.
var mutationGroups = []querycache.Resource{querycache.Items, querycache.StockMovements}

// StockLedgerUseCase registra y revierte movimientos de stock de forma transaccional:
// bloqueo de fila (SELECT FOR UPDATE), verificación del stock observado y Commit/Rollback.
type StockLedgerUseCase struct {
	txRunner         TxRunner
	itemRepo         repository.ItemRepository
	movRepo          repository.StockMovementRepository
	confirmThreshold int
	now              func() time.Time
	log              *logger.Logger

	inflight sync.Map // "userID/itemID" -> struct{}
}

// Options parámetros opcionales del motor.
type Options struct {
	ConfirmThreshold int
	Now              func() time.Time
	Logger           *logger.Logger
}

// NewStockLedgerUseCase construye el caso de uso.
func NewStockLedgerUseCase(
	txRunner TxRunner,
	itemRepo repository.ItemRepository,
	movRepo repository.StockMovementRepository,
	opts Options,
) *StockLedgerUseCase {
	if opts.ConfirmThreshold <= 0 {
		opts.ConfirmThreshold = DefaultConfirmThreshold
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &StockLedgerUseCase{
		txRunner:         txRunner,
		itemRepo:         itemRepo,
		movRepo:          movRepo,
		confirmThreshold: opts.ConfirmThreshold,
		now:              opts.Now,
		log:              opts.Logger,
	}
}

// ApplyMovementInput entrada de ApplyMovement.
// CurrentStock es el stock que vio el llamador; si ya no coincide con el guardado la operación se rechaza.
type ApplyMovementInput struct {
	UserID       string
	ItemID       string
	Type         entity.MovementType
	Quantity     int
	CurrentStock int
	Confirmer    ports.Confirmer
}

// ApplyMovementResult resultado de ApplyMovement. Invalidate lista los grupos de consultas obsoletos.
type ApplyMovementResult struct {
	NewStock   int
	Movement   *entity.StockMovement
	Invalidate []querycache.Resource
}

// ApplyMovement registra una alım o satış: actualiza el stock del producto e inserta el movimiento
// en la misma transacción. No escribe nada si la validación, la confirmación o la verificación fallan.
func (uc *StockLedgerUseCase) ApplyMovement(ctx context.Context, in ApplyMovementInput) (*ApplyMovementResult, error) {
	if in.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if in.ItemID == "" {
		return nil, domain.Invalid("item_id", "el producto es obligatorio")
	}
	newStock, err := ledger.Apply(in.CurrentStock, in.Type, in.Quantity)
	if err != nil {
		return nil, err
	}
	if in.Quantity >= uc.confirmThreshold {
		if !ports.Ask(ctx, in.Confirmer, ports.LargeQuantityPrompt(ActionText(in.Type), in.Quantity)) {
			return nil, domain.ErrConfirmationRequired
		}
	}

	release, err := uc.acquire(in.UserID, in.ItemID)
	if err != nil {
		return nil, err
	}
	defer release()

	now := uc.now()
	var mov *entity.StockMovement
	err = uc.txRunner.Run(ctx, func(itemRepo repository.ItemRepository, movRepo repository.StockMovementRepository) error {
		// Bloquea la fila del producto (SELECT FOR UPDATE) para evitar condiciones de carrera
		item, err := itemRepo.GetForUpdate(ctx, in.UserID, in.ItemID)
		if err != nil {
			return err
		}
		if item.Stock != in.CurrentStock {
			return fmt.Errorf("%w (guardado %d, observado %d)", domain.ErrStaleStock, item.Stock, in.CurrentStock)
		}
		if err := itemRepo.UpdateStock(ctx, in.UserID, in.ItemID, newStock, now); err != nil {
			return err
		}
		mov = &entity.StockMovement{
			ID:        uuid.New().String(),
			UserID:    in.UserID,
			ItemID:    in.ItemID,
			ItemName:  item.Name,
			Type:      in.Type,
			Quantity:  in.Quantity,
			CreatedAt: now,
		}
		return movRepo.Create(ctx, mov)
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("user_id", in.UserID).Str("item_id", in.ItemID).
			Str("type", string(in.Type)).Int("quantity", in.Quantity).Msg("movimiento rechazado")
		return nil, err
	}

	uc.log.Info().Str("user_id", in.UserID).Str("item_id", in.ItemID).Str("movement_id", mov.ID).
		Str("type", string(in.Type)).Int("quantity", in.Quantity).Int("new_stock", newStock).Msg("movimiento registrado")
	return &ApplyMovementResult{NewStock: newStock, Movement: mov, Invalidate: mutationGroups}, nil
}

// UndoMovementInput entrada de UndoMovement. ItemID, Type y Quantity son opcionales;
// si se envían deben coincidir con el movimiento guardado.
type UndoMovementInput struct {
	UserID     string
	MovementID string
	ItemID     string
	Type       entity.MovementType
	Quantity   int
	Confirmer  ports.Confirmer
}

// UndoMovementResult resultado de UndoMovement.
type UndoMovementResult struct {
	NewStock           int
	ReversedMovementID string
	Movement           *entity.StockMovement
	Invalidate         []querycache.Resource
}

// UndoMovement revierte un movimiento insertando el movimiento opuesto ("geri al") con reversal_of.
// Parte del stock actual del producto, no del que había al registrarse el original.
// Cada movimiento se revierte como máximo una vez.
func (uc *StockLedgerUseCase) UndoMovement(ctx context.Context, in UndoMovementInput) (*UndoMovementResult, error) {
	if in.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if in.MovementID == "" {
		return nil, domain.Invalid("movement_id", "el movimiento es obligatorio")
	}
	if in.Quantity < 0 {
		return nil, domain.Invalid("quantity", "la cantidad debe ser mayor que 0")
	}
	if in.Type != "" && !in.Type.Valid() {
		return nil, domain.Invalid("type", "tipo de movimiento desconocido")
	}

	orig, err := uc.movRepo.GetByID(ctx, in.UserID, in.MovementID)
	if err != nil {
		return nil, err
	}
	if err := matchOriginal(orig, in); err != nil {
		return nil, err
	}
	rev, err := uc.movRepo.GetReversal(ctx, in.UserID, orig.ID)
	if err != nil {
		return nil, err
	}
	if rev != nil {
		return nil, domain.ErrAlreadyReversed
	}
	if !ports.Ask(ctx, in.Confirmer, ports.UndoPrompt(ActionText(orig.Type), orig.ItemName, orig.Quantity)) {
		return nil, domain.ErrConfirmationRequired
	}

	release, err := uc.acquire(in.UserID, orig.ItemID)
	if err != nil {
		return nil, err
	}
	defer release()

	now := uc.now()
	reverseType := ledger.Reverse(orig.Type)
	var (
		newStock int
		mov      *entity.StockMovement
	)
	err = uc.txRunner.Run(ctx, func(itemRepo repository.ItemRepository, movRepo repository.StockMovementRepository) error {
		item, err := itemRepo.GetForUpdate(ctx, in.UserID, orig.ItemID)
		if err != nil {
			return err
		}
		// Con la fila bloqueada ninguna otra reversión del mismo producto puede colarse.
		rev, err := movRepo.GetReversal(ctx, in.UserID, orig.ID)
		if err != nil {
			return err
		}
		if rev != nil {
			return domain.ErrAlreadyReversed
		}
		newStock, err = ledger.Apply(item.Stock, reverseType, orig.Quantity)
		if err != nil {
			return err
		}
		if err := itemRepo.UpdateStock(ctx, in.UserID, item.ID, newStock, now); err != nil {
			return err
		}
		reversalOf := orig.ID
		mov = &entity.StockMovement{
			ID:         uuid.New().String(),
			UserID:     in.UserID,
			ItemID:     item.ID,
			ItemName:   item.Name,
			Type:       reverseType,
			Quantity:   orig.Quantity,
			ReversalOf: &reversalOf,
			CreatedAt:  now,
		}
		return movRepo.Create(ctx, mov)
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("user_id", in.UserID).Str("movement_id", in.MovementID).Msg("reversión rechazada")
		return nil, err
	}

	uc.log.Info().Str("user_id", in.UserID).Str("item_id", orig.ItemID).Str("movement_id", mov.ID).
		Str("reversal_of", orig.ID).Int("new_stock", newStock).Msg("movimiento revertido")
	return &UndoMovementResult{
		NewStock:           newStock,
		ReversedMovementID: orig.ID,
		Movement:           mov,
		Invalidate:         mutationGroups,
	}, nil
}

// ItemAudit compara el stock materializado con el derivado del libro.
type ItemAudit struct {
	ItemID        string
	StoredStock   int
	DerivedStock  int
	MovementCount int
	Consistent    bool
}

// AuditItem recalcula el stock del producto sumando sus movimientos.
func (uc *StockLedgerUseCase) AuditItem(ctx context.Context, userID, itemID string) (*ItemAudit, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	item, err := uc.itemRepo.GetByID(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	movs, err := uc.movRepo.ListByItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	derived := ledger.Replay(0, movs)
	if derived != item.Stock {
		uc.log.Error().Str("user_id", userID).Str("item_id", itemID).
			Int("stored", item.Stock).Int("derived", derived).Msg("stock inconsistente con el libro")
	}
	return &ItemAudit{
		ItemID:        item.ID,
		StoredStock:   item.Stock,
		DerivedStock:  derived,
		MovementCount: len(movs),
		Consistent:    derived == item.Stock,
	}, nil
}

// ActionText etiqueta en minúsculas usada en los textos de confirmación.
func ActionText(t entity.MovementType) string {
	if t == entity.MovementPurchase {
		return "alım"
	}
	return "satış"
}

// acquire marca (user, item) como ocupado; un segundo envío mientras el primero corre se rechaza.
func (uc *StockLedgerUseCase) acquire(userID, itemID string) (func(), error) {
	key := userID + "/" + itemID
	if _, busy := uc.inflight.LoadOrStore(key, struct{}{}); busy {
		return nil, domain.ErrOperationInProgress
	}
	return func() { uc.inflight.Delete(key) }, nil
}

func matchOriginal(orig *entity.StockMovement, in UndoMovementInput) error {
	if in.ItemID != "" && in.ItemID != orig.ItemID {
		return domain.Invalid("item_id", "no coincide con el movimiento")
	}
	if in.Type != "" && in.Type != orig.Type {
		return domain.Invalid("type", "no coincide con el movimiento")
	}
	if in.Quantity != 0 && in.Quantity != orig.Quantity {
		return domain.Invalid("quantity", "no coincide con el movimiento")
	}
	return nil
}
