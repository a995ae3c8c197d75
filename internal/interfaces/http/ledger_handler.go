package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/application/ledger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// LedgerHandler libro de clientes (protegido).
type LedgerHandler struct {
	svc *ledger.Service
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(svc *ledger.Service) *LedgerHandler {
	return &LedgerHandler{svc: svc}
}

// CreateEntry POST /api/ledger/entries
func (h *LedgerHandler) CreateEntry(c *fiber.Ctx) error {
	var in dto.LedgerEntryRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	t := GetTenant(c)
	e, err := h.svc.CreateLedgerEntry(c.UserContext(), t, ledger.EntryInput{
		CompanyID:       t.CompanyID,
		BranchID:        t.BranchID,
		CustomerID:      in.CustomerID,
		TransactionType: in.TransactionType,
		Debit:           in.DebitAmount,
		Credit:          in.CreditAmount,
		Description:     in.Description,
		Reference:       in.Reference,
		InvoiceID:       in.InvoiceID,
		OrderID:         in.OrderID,
		ReturnID:        in.ReturnID,
	}, t.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToLedgerEntryResponse(e))
}

// CreateSale POST /api/ledger/sales
func (h *LedgerHandler) CreateSale(c *fiber.Ctx) error {
	var in dto.SaleLedgerRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	t := GetTenant(c)
	e, err := h.svc.CreateSaleLedgerEntry(c.UserContext(), t, in.OrderID, in.InvoiceID, t.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToLedgerEntryResponse(e))
}

// CreatePayment POST /api/ledger/payments
func (h *LedgerHandler) CreatePayment(c *fiber.Ctx) error {
	var in dto.PaymentLedgerRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	t := GetTenant(c)
	e, err := h.svc.CreatePaymentLedgerEntry(c.UserContext(), t, ledger.PaymentPosting{
		CompanyID:  t.CompanyID,
		BranchID:   t.BranchID,
		CustomerID: in.CustomerID,
		Amount:     in.Amount,
		Method:     in.Method,
		Reference:  in.Reference,
		InvoiceID:  in.InvoiceID,
	}, t.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToLedgerEntryResponse(e))
}

// CreateRefund POST /api/ledger/refunds
func (h *LedgerHandler) CreateRefund(c *fiber.Ctx) error {
	var in dto.RefundLedgerRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	t := GetTenant(c)
	e, err := h.svc.CreateRefundLedgerEntry(c.UserContext(), t, in.ReturnID, t.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToLedgerEntryResponse(e))
}

// Balance GET /api/ledger/customers/:id/balance
func (h *LedgerHandler) Balance(c *fiber.Ctx) error {
	id := c.Params("id")
	bal, err := h.svc.GetCustomerBalance(c.UserContext(), GetTenant(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.BalanceResponse{CustomerID: id, Balance: bal})
}

// Statement GET /api/ledger/customers/:id/statement?from=&to=
func (h *LedgerHandler) Statement(c *fiber.Ctx) error {
	from, to, err := timeRange(c)
	if err != nil {
		return badRequest(c, "from/to must be RFC3339 or YYYY-MM-DD")
	}
	st, err := h.svc.GetCustomerStatement(c.UserContext(), GetTenant(c), c.Params("id"), from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStatementResponse(st))
}

// StatementXLSX GET /api/ledger/customers/:id/statement.xlsx?from=&to=
func (h *LedgerHandler) StatementXLSX(c *fiber.Ctx) error {
	from, to, err := timeRange(c)
	if err != nil {
		return badRequest(c, "from/to must be RFC3339 or YYYY-MM-DD")
	}
	data, name, err := h.svc.ExportStatementXLSX(c.UserContext(), GetTenant(c), c.Params("id"), from, to)
	if err != nil {
		return writeError(c, err)
	}
	return attachment(c, xlsxContentType, name, data)
}

// Aging GET /api/ledger/aging?as_of=
func (h *LedgerHandler) Aging(c *fiber.Ctx) error {
	asOf, err := queryTime(c, "as_of", time.Now().UTC())
	if err != nil {
		return badRequest(c, "as_of must be RFC3339 or YYYY-MM-DD")
	}
	rep, err := h.svc.Aging(c.UserContext(), GetTenant(c), asOf)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.AgingResponse{AsOf: rep.AsOf, Rows: make([]dto.AgingRowResponse, 0, len(rep.Rows)), Totals: toBuckets(rep.Totals)}
	for _, r := range rep.Rows {
		out.Rows = append(out.Rows, dto.AgingRowResponse{CustomerID: r.CustomerID, Invoices: r.Invoices, Buckets: toBuckets(r.Buckets)})
	}
	return c.JSON(out)
}

func toStatementResponse(st *ledger.Statement) dto.StatementResponse {
	out := dto.StatementResponse{
		CustomerID:     st.CustomerID,
		CustomerName:   st.CustomerName,
		Start:          st.Start,
		End:            st.End,
		OpeningBalance: st.OpeningBalance,
		ClosingBalance: st.ClosingBalance,
		TotalDebit:     st.TotalDebit,
		TotalCredit:    st.TotalCredit,
		Entries:        make([]dto.LedgerEntryResponse, 0, len(st.Entries)),
	}
	for _, e := range st.Entries {
		out.Entries = append(out.Entries, dto.ToLedgerEntryResponse(e))
	}
	return out
}

func toBuckets(b ledger.AgingBuckets) dto.AgingBucketsResponse {
	return dto.AgingBucketsResponse{
		Days0To30:  b.Days0To30,
		Days31To60: b.Days31To60,
		Days61To90: b.Days61To90,
		Over90:     b.Over90,
		Total:      b.Total(),
	}
}
