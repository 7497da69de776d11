package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stock-ledger/internal/core"
	"stock-ledger/internal/logging"
	"stock-ledger/internal/metrics"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Services bundles the core services an appService delegates to.
type Services struct {
	Pool       *pgxpool.Pool
	Accounts   core.AccountService
	Catalog    core.CatalogService
	Inventory  core.InventoryService
	Ledger     *core.Ledger
	Prices     core.PriceService
	Categories core.CategoryService
	Documents  core.PurchaseDocumentService
	Vendors    core.VendorService
}

// NewServices wires every core service onto one pool. events may be nil.
func NewServices(pool *pgxpool.Pool, events core.EventPublisher, logger *zap.Logger) Services {
	if logger == nil {
		logger = zap.NewNop()
	}
	inventory := core.NewInventoryService(pool, events, logger.Named("inventory"))
	ledger := core.NewLedger(pool, inventory, events, logger.Named("ledger"))
	return Services{
		Pool:       pool,
		Accounts:   core.NewAccountService(pool, logger.Named("accounts")),
		Catalog:    core.NewCatalogService(pool, logger.Named("catalog")),
		Inventory:  inventory,
		Ledger:     ledger,
		Prices:     core.NewPriceService(pool),
		Categories: core.NewCategoryService(pool, logger.Named("categories")),
		Documents:  core.NewPurchaseDocumentService(pool, ledger, events, logger.Named("documents")),
		Vendors:    core.NewVendorService(pool, logger.Named("vendors")),
	}
}

type appService struct {
	svc             Services
	defaultLocation string
	logger          *zap.Logger
	metrics         *metrics.Metrics
}

// NewAppService constructs an appService that satisfies ApplicationService.
// m may be nil.
func NewAppService(svc Services, defaultLocation string, logger *zap.Logger, m *metrics.Metrics) ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &appService{
		svc:             svc,
		defaultLocation: defaultLocation,
		logger:          logger,
		metrics:         m,
	}
}

// observe records the outcome of op. Call it deferred with a pointer to the
// named error result.
func (s *appService) observe(ctx context.Context, op string, start time.Time, errp *error) {
	s.metrics.TrackOperation(op)(start)

	var err error
	if errp != nil {
		err = *errp
	}
	if err == nil {
		s.metrics.RecordOperation(op, "ok")
		return
	}

	code := core.KindOf(err)
	s.metrics.RecordOperation(op, code)
	logger := logging.FromContext(ctx, s.logger)
	if code == core.CodeStorage {
		logger.Error("operation failed", zap.String("operation", op), zap.Error(err))
		return
	}
	logger.Warn("operation rejected",
		zap.String("operation", op),
		zap.String("code", code),
		zap.String("reason", err.Error()),
	)
}

func (s *appService) location(loc string) string {
	if strings.TrimSpace(loc) == "" {
		return s.defaultLocation
	}
	return loc
}

func notFound(format string, args ...any) error {
	return &core.Error{Kind: core.ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func (s *appService) Ping(ctx context.Context) error {
	if s.svc.Pool == nil {
		return &core.Error{Kind: core.ErrStorage, Msg: "database pool not configured"}
	}
	if err := s.svc.Pool.Ping(ctx); err != nil {
		return &core.Error{Kind: core.ErrStorage, Msg: "ping database", Err: err}
	}
	return nil
}

// ── Accounts & catalog ────────────────────────────────────────────────────────

func (s *appService) CreateAccount(ctx context.Context, req CreateAccountRequest) (acct *core.Account, err error) {
	defer s.observe(ctx, "create_account", time.Now(), &err)
	typ, err := core.ParseAccountType(req.Type)
	if err != nil {
		return nil, err
	}
	return s.svc.Accounts.CreateAccount(ctx, core.AccountInput{Name: req.Name, Type: typ, Email: req.Email})
}

func (s *appService) ListAccounts(ctx context.Context, accountType, visibility string) (*AccountListResult, error) {
	vis, err := core.ParseVisibility(visibility)
	if err != nil {
		return nil, err
	}
	var typ *core.AccountType
	if strings.TrimSpace(accountType) != "" {
		t, err := core.ParseAccountType(accountType)
		if err != nil {
			return nil, err
		}
		typ = &t
	}
	accounts, err := s.svc.Accounts.ListAccounts(ctx, typ, vis)
	if err != nil {
		return nil, err
	}
	return &AccountListResult{Accounts: accounts}, nil
}

func (s *appService) CreateProduct(ctx context.Context, req CreateProductRequest) (p *core.Product, err error) {
	defer s.observe(ctx, "create_product", time.Now(), &err)
	return s.svc.Catalog.CreateProduct(ctx, core.ProductInput{
		SKU:           req.SKU,
		Name:          req.Name,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		UnitOfMeasure: req.UnitOfMeasure,
	})
}

func (s *appService) GetProduct(ctx context.Context, id int) (*core.Product, error) {
	return s.svc.Catalog.GetProduct(ctx, id)
}

func (s *appService) ListProducts(ctx context.Context, visibility string) (*ProductListResult, error) {
	vis, err := core.ParseVisibility(visibility)
	if err != nil {
		return nil, err
	}
	products, err := s.svc.Catalog.ListProducts(ctx, vis)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products}, nil
}

func (s *appService) DeactivateProduct(ctx context.Context, id int) (err error) {
	defer s.observe(ctx, "deactivate_product", time.Now(), &err)
	return s.svc.Catalog.DeactivateProduct(ctx, id)
}

func (s *appService) AssignCategory(ctx context.Context, productID int, req AssignCategoryRequest) (p *core.Product, err error) {
	defer s.observe(ctx, "assign_category", time.Now(), &err)
	return s.svc.Catalog.AssignCategory(ctx, productID, req.CategoryID)
}

// ── Inventory & ledger ────────────────────────────────────────────────────────

// AdjustInventory routes stock changes through the ledger so each one leaves an
// audit row. A bounds-only update (zero delta) goes straight to the store.
func (s *appService) AdjustInventory(ctx context.Context, req AdjustInventoryRequest) (rec *core.InventoryRecord, err error) {
	defer s.observe(ctx, "adjust_inventory", time.Now(), &err)

	loc := s.location(req.Location)
	bounds := core.StockBounds{MinStock: req.MinStock, MaxStock: req.MaxStock}
	if req.Delta.IsZero() && req.bounds() {
		return s.svc.Inventory.AdjustInventory(ctx, req.ProductID, loc, req.Delta, bounds)
	}

	typ := core.TransactionAdjustment
	if strings.TrimSpace(req.Type) != "" {
		if typ, err = core.ParseTransactionType(req.Type); err != nil {
			return nil, err
		}
	}
	return s.svc.Ledger.AdjustStock(ctx, core.StockMovement{
		ProductID: req.ProductID,
		Location:  loc,
		Delta:     req.Delta,
		Type:      typ,
		Reference: req.Reference,
		Bounds:    bounds,
	})
}

func (s *appService) TransferInventory(ctx context.Context, req TransferRequest) (res *core.TransferResult, err error) {
	defer s.observe(ctx, "transfer_inventory", time.Now(), &err)
	return s.svc.Ledger.TransferStock(ctx, req.ProductID, req.From, req.To, req.Quantity, req.Reference)
}

func (s *appService) GetInventoryAtLocation(ctx context.Context, productID int, location string) (*core.InventoryRecord, error) {
	return s.svc.Inventory.GetInventoryAtLocation(ctx, productID, s.location(location))
}

func (s *appService) GetProductStock(ctx context.Context, productID int) (*ProductStockResult, error) {
	records, err := s.svc.Inventory.GetAllInventoryForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	total, err := s.svc.Inventory.GetTotalInventory(ctx, productID)
	if err != nil {
		return nil, err
	}
	onOrder, err := s.svc.Ledger.GetOnOrderLevel(ctx, productID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []core.InventoryRecord{}
	}
	return &ProductStockResult{
		ProductID: productID,
		Records:   records,
		OnHand:    total.Quantity,
		Locations: total.Locations,
		OnOrder:   onOrder,
	}, nil
}

func (s *appService) CheckLowStock(ctx context.Context, filter core.LowStockFilter) (*LowStockResult, error) {
	alerts, err := s.svc.Inventory.CheckLowStock(ctx, filter)
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []core.LowStockAlert{}
	}
	return &LowStockResult{Alerts: alerts}, nil
}

func (s *appService) ListTransactions(ctx context.Context, filter core.TransactionFilter) (*TransactionListResult, error) {
	txs, err := s.svc.Ledger.ListTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []core.InventoryTransaction{}
	}
	return &TransactionListResult{Transactions: txs}, nil
}

// ── Pricing ───────────────────────────────────────────────────────────────────

func (s *appService) UpsertPrice(ctx context.Context, req UpsertPriceRequest) (rec *core.PriceRecord, err error) {
	defer s.observe(ctx, "upsert_price", time.Now(), &err)

	in := core.PriceInput{
		ProductID: req.ProductID,
		PriceType: core.PriceType(req.PriceType),
		Currency:  req.Currency,
		Value:     req.Value,
	}
	if in.ValidFrom, err = core.ParseDate(req.ValidFrom); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ValidTo) != "" {
		to, err := core.ParseDate(req.ValidTo)
		if err != nil {
			return nil, err
		}
		in.ValidTo = &to
	}
	return s.svc.Prices.UpsertPrice(ctx, in)
}

func (s *appService) GetEffectivePrice(ctx context.Context, req EffectivePriceRequest) (*core.PriceRecord, error) {
	at := time.Now()
	if strings.TrimSpace(req.Date) != "" {
		var err error
		if at, err = core.ParseDate(req.Date); err != nil {
			return nil, err
		}
	}
	rec, err := s.svc.Prices.EffectivePrice(ctx, req.ProductID, at, req.Currency, core.PriceType(req.PriceType))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, notFound("no %s %s price for product %d on %s",
			strings.ToUpper(req.PriceType), strings.ToUpper(req.Currency), req.ProductID, at.Format("2006-01-02"))
	}
	return rec, nil
}

func (s *appService) ListPrices(ctx context.Context, productID int, filter core.PriceFilter) (*PriceListResult, error) {
	prices, err := s.svc.Prices.ListPrices(ctx, productID, filter)
	if err != nil {
		return nil, err
	}
	if prices == nil {
		prices = []core.PriceRecord{}
	}
	return &PriceListResult{Prices: prices}, nil
}

func (s *appService) DeletePrice(ctx context.Context, priceID int) (err error) {
	defer s.observe(ctx, "delete_price", time.Now(), &err)
	return s.svc.Prices.DeletePrice(ctx, priceID)
}

// ── Categories ────────────────────────────────────────────────────────────────

func (s *appService) CreateCategory(ctx context.Context, req CategoryRequest) (c *core.Category, err error) {
	defer s.observe(ctx, "create_category", time.Now(), &err)
	return s.svc.Categories.Create(ctx, req.Name, req.ParentID)
}

func (s *appService) RenameCategory(ctx context.Context, id int, name string) (c *core.Category, err error) {
	defer s.observe(ctx, "rename_category", time.Now(), &err)
	return s.svc.Categories.Rename(ctx, id, name)
}

func (s *appService) MoveCategory(ctx context.Context, id int, parentID *int) (c *core.Category, err error) {
	defer s.observe(ctx, "move_category", time.Now(), &err)
	return s.svc.Categories.UpdateParent(ctx, id, parentID)
}

func (s *appService) DeleteCategory(ctx context.Context, id int) (res *CategoryDeleteResult, err error) {
	defer s.observe(ctx, "delete_category", time.Now(), &err)
	n, err := s.svc.Categories.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CategoryDeleteResult{CategoryID: id, ProductsUnassigned: n}, nil
}

func (s *appService) ListCategories(ctx context.Context) (*CategoryListResult, error) {
	cats, err := s.svc.Categories.List(ctx)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []core.Category{}
	}
	return &CategoryListResult{Categories: cats}, nil
}

func (s *appService) CategoryTree(ctx context.Context) (*CategoryTreeResult, error) {
	roots, err := s.svc.Categories.Tree(ctx)
	if err != nil {
		return nil, err
	}
	if roots == nil {
		roots = []*core.CategoryNode{}
	}
	return &CategoryTreeResult{Roots: roots}, nil
}

func (s *appService) CategoryPath(ctx context.Context, id int) (*CategoryPathResult, error) {
	path, err := s.svc.Categories.PathString(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CategoryPathResult{CategoryID: id, Path: path}, nil
}

// ── Purchase documents ────────────────────────────────────────────────────────

// CreateRFQ creates the document and its items in one transaction. A rejected
// item leaves nothing behind.
func (s *appService) CreateRFQ(ctx context.Context, req CreateRFQRequest) (res *DocumentResult, err error) {
	defer s.observe(ctx, "create_rfq", time.Now(), &err)

	items := make([]core.ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, itemInput(item))
	}
	doc, err := s.svc.Documents.CreateRFQ(ctx, req.VendorID, req.Notes, items...)
	if err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return &DocumentResult{Document: doc}, nil
	}
	return s.GetDocument(ctx, doc.ID)
}

func itemInput(req AddItemRequest) core.ItemInput {
	return core.ItemInput{
		ProductID:   req.ProductID,
		Description: req.Description,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		Note:        req.Note,
	}
}

func (s *appService) AddDocumentItem(ctx context.Context, documentID int, req AddItemRequest) (it *core.PurchaseDocumentItem, err error) {
	defer s.observe(ctx, "add_document_item", time.Now(), &err)
	return s.svc.Documents.AddItem(ctx, documentID, itemInput(req))
}

func (s *appService) UpdateDocumentItem(ctx context.Context, itemID int, req UpdateItemRequest) (it *core.PurchaseDocumentItem, err error) {
	defer s.observe(ctx, "update_document_item", time.Now(), &err)
	return s.svc.Documents.UpdateItem(ctx, itemID, core.ItemUpdate{
		Description:    req.Description,
		Quantity:       req.Quantity,
		UnitPrice:      req.UnitPrice,
		ClearUnitPrice: req.ClearUnitPrice,
		Note:           req.Note,
	})
}

func (s *appService) DeleteDocumentItem(ctx context.Context, itemID int) (err error) {
	defer s.observe(ctx, "delete_document_item", time.Now(), &err)
	return s.svc.Documents.DeleteItem(ctx, itemID)
}

func (s *appService) ConvertToPO(ctx context.Context, documentID int) (res *DocumentResult, err error) {
	defer s.observe(ctx, "convert_to_po", time.Now(), &err)
	return documentResult(s.svc.Documents.ConvertToPO(ctx, documentID))
}

func (s *appService) MarkReceived(ctx context.Context, documentID int, req ReceiveRequest) (res *DocumentResult, err error) {
	defer s.observe(ctx, "mark_received", time.Now(), &err)
	return documentResult(s.svc.Documents.MarkReceived(ctx, documentID, s.location(req.Location)))
}

func (s *appService) CloseDocument(ctx context.Context, documentID int) (res *DocumentResult, err error) {
	defer s.observe(ctx, "close_document", time.Now(), &err)
	return documentResult(s.svc.Documents.Close(ctx, documentID))
}

func (s *appService) UpdateDocumentStatus(ctx context.Context, documentID int, req StatusRequest) (res *DocumentResult, err error) {
	defer s.observe(ctx, "update_document_status", time.Now(), &err)
	to, err := core.ParseDocumentStatus(req.Status)
	if err != nil {
		return nil, err
	}
	return documentResult(s.svc.Documents.UpdateStatus(ctx, documentID, to, s.location(req.Location)))
}

func (s *appService) DeleteDocument(ctx context.Context, documentID int) (err error) {
	defer s.observe(ctx, "delete_document", time.Now(), &err)
	return s.svc.Documents.Delete(ctx, documentID)
}

func (s *appService) ListDocuments(ctx context.Context, req DocumentListRequest) (*DocumentListResult, error) {
	criteria := core.DocumentCriteria{VendorID: req.VendorID}
	var err error
	if criteria.Visibility, err = core.ParseVisibility(req.Visibility); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Status) != "" {
		st, err := core.ParseDocumentStatus(req.Status)
		if err != nil {
			return nil, err
		}
		criteria.Status = &st
	}
	docs, err := s.svc.Documents.List(ctx, criteria)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []core.PurchaseDocument{}
	}
	return &DocumentListResult{Documents: docs}, nil
}

func (s *appService) GetDocument(ctx context.Context, documentID int) (*DocumentResult, error) {
	return documentResult(s.svc.Documents.Get(ctx, documentID))
}

func (s *appService) GetDocumentItems(ctx context.Context, documentID int) ([]core.PurchaseDocumentItem, error) {
	return s.svc.Documents.GetItems(ctx, documentID)
}

func documentResult(doc *core.PurchaseDocument, err error) (*DocumentResult, error) {
	if err != nil {
		return nil, err
	}
	return &DocumentResult{Document: doc}, nil
}

// ── Vendor links ──────────────────────────────────────────────────────────────

func (s *appService) LinkVendor(ctx context.Context, req VendorLinkRequest) (link *core.VendorLink, err error) {
	defer s.observe(ctx, "link_vendor", time.Now(), &err)
	return s.svc.Vendors.LinkVendor(ctx, core.VendorLinkInput{
		ProductID:    req.ProductID,
		VendorID:     req.VendorID,
		VendorSKU:    req.VendorSKU,
		LeadTimeDays: req.LeadTimeDays,
		LastPrice:    req.LastPrice,
	})
}

func (s *appService) UpdateVendorLink(ctx context.Context, linkID int, req VendorLinkPatch) (link *core.VendorLink, err error) {
	defer s.observe(ctx, "update_vendor_link", time.Now(), &err)
	return s.svc.Vendors.UpdateLink(ctx, linkID, core.VendorLinkUpdate{
		VendorSKU:    req.VendorSKU,
		LeadTimeDays: req.LeadTimeDays,
		LastPrice:    req.LastPrice,
	})
}

func (s *appService) RemoveVendorLink(ctx context.Context, linkID int) (err error) {
	defer s.observe(ctx, "remove_vendor_link", time.Now(), &err)
	return s.svc.Vendors.RemoveLink(ctx, linkID)
}

func (s *appService) ListVendorsForProduct(ctx context.Context, productID int) (*VendorLinkListResult, error) {
	return linkList(s.svc.Vendors.ListForProduct(ctx, productID))
}

func (s *appService) ListProductsForVendor(ctx context.Context, vendorID int) (*VendorLinkListResult, error) {
	return linkList(s.svc.Vendors.ListForVendor(ctx, vendorID))
}

func linkList(links []core.VendorLink, err error) (*VendorLinkListResult, error) {
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []core.VendorLink{}
	}
	return &VendorLinkListResult{Links: links}, nil
}

func (s *appService) PreferredVendor(ctx context.Context, productID int) (*PreferredVendorResult, error) {
	link, err := s.svc.Vendors.PreferredVendor(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &PreferredVendorResult{ProductID: productID, Link: link}, nil
}
