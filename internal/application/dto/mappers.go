package dto

import "github.com/jhoicas/pos-api/internal/domain/entity"

// ToProductResponse mapea un producto a su salida.
func ToProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		CompanyID:      p.CompanyID,
		BranchID:       p.BranchID,
		SKU:            p.SKU,
		Name:           p.Name,
		Price:          p.Price,
		UnitStock:      p.UnitStock,
		StockThreshold: p.StockThreshold,
		Status:         p.Status,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// ToMovementResponse mapea un movimiento de inventario.
func ToMovementResponse(m *entity.InventoryMovement) InventoryMovementResponse {
	return InventoryMovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		TransactionID: m.TransactionID,
		Type:          m.Type,
		Quantity:      m.Quantity,
		StockAfter:    m.StockAfter,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}

// ToCustomerResponse mapea un cliente.
func ToCustomerResponse(c *entity.Customer) CustomerResponse {
	return CustomerResponse{ID: c.ID, CompanyID: c.CompanyID, Name: c.Name, Email: c.Email, Phone: c.Phone}
}

// ToInvoiceResponse mapea una factura o nota crédito.
func ToInvoiceResponse(i *entity.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:                i.ID,
		CompanyID:         i.CompanyID,
		BranchID:          i.BranchID,
		CustomerID:        i.CustomerID,
		OrderID:           i.OrderID,
		Type:              i.Type,
		InvoiceNumber:     i.InvoiceNumber,
		InvoiceDate:       i.InvoiceDate,
		DueDate:           i.DueDate,
		TotalAmount:       i.TotalAmount,
		AmountPaid:        i.AmountPaid,
		Balance:           i.Balance,
		Status:            i.Status,
		OriginalInvoiceID: i.OriginalInvoiceID,
		ReturnID:          i.ReturnID,
	}
}

// ToPaymentResponse mapea un pago de factura.
func ToPaymentResponse(p *entity.InvoicePayment) InvoicePaymentResponse {
	return InvoicePaymentResponse{
		ID:         p.ID,
		InvoiceID:  p.InvoiceID,
		Amount:     p.Amount,
		Method:     p.Method,
		Reference:  p.Reference,
		ReceivedBy: p.ReceivedBy,
		PaidAt:     p.PaidAt,
	}
}

// ToOrderResponse mapea un pedido y, si se pasa, la factura emitida con él.
func ToOrderResponse(o *entity.Order, inv *entity.Invoice) OrderResponse {
	out := OrderResponse{
		ID:            o.ID,
		CompanyID:     o.CompanyID,
		BranchID:      o.BranchID,
		CustomerID:    o.CustomerID,
		Date:          o.Date,
		TotalAmount:   o.TotalAmount,
		Status:        o.Status,
		OrderStatus:   o.OrderStatus,
		PaymentMethod: o.PaymentMethod,
		Lines:         make([]OrderLineResponse, 0, len(o.Lines)),
	}
	for _, l := range o.Lines {
		out.Lines = append(out.Lines, OrderLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: l.LineTotal,
		})
	}
	if inv != nil {
		out.InvoiceID = inv.ID
		out.InvoiceNumber = inv.InvoiceNumber
	}
	return out
}

// ToOrderHistoryResponse mapea una fila de historial.
func ToOrderHistoryResponse(h *entity.OrderHistory) OrderHistoryResponse {
	return OrderHistoryResponse{
		ID:             h.ID,
		PreviousStatus: h.PreviousStatus,
		NewStatus:      h.NewStatus,
		Action:         h.Action,
		ActorID:        h.ActorID,
		Note:           h.Note,
		CreatedAt:      h.CreatedAt,
	}
}

// ToReturnResponse mapea una devolución con sus ítems.
func ToReturnResponse(r *entity.Return) ReturnResponse {
	out := ReturnResponse{
		ID:                  r.ID,
		InvoiceID:           r.InvoiceID,
		OrderID:             r.OrderID,
		CustomerID:          r.CustomerID,
		Type:                r.Type,
		Status:              r.Status,
		Reason:              r.Reason,
		RefundMethod:        r.RefundMethod,
		TotalReturnAmount:   r.TotalReturnAmount,
		CreditNoteInvoiceID: r.CreditNoteInvoiceID,
		Items:               make([]ReturnItemResponse, 0, len(r.Items)),
		CreatedAt:           r.CreatedAt,
	}
	for _, it := range r.Items {
		out.Items = append(out.Items, ReturnItemResponse{
			ID:             it.ID,
			ProductID:      it.ProductID,
			ReturnQuantity: it.ReturnQuantity,
			ReturnAmount:   it.ReturnAmount,
		})
	}
	return out
}

// ToLedgerEntryResponse mapea un movimiento del libro del cliente.
func ToLedgerEntryResponse(e *entity.CustomerLedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:              e.ID,
		CustomerID:      e.CustomerID,
		TransactionDate: e.TransactionDate,
		TransactionType: e.TransactionType,
		DebitAmount:     e.DebitAmount,
		CreditAmount:    e.CreditAmount,
		Balance:         e.Balance,
		Description:     e.Description,
		Reference:       e.Reference,
		InvoiceID:       e.InvoiceID,
		OrderID:         e.OrderID,
		ReturnID:        e.ReturnID,
	}
}

// ToAccountingEntryResponse mapea un asiento contable.
func ToAccountingEntryResponse(e *entity.AccountingEntry) AccountingEntryResponse {
	return AccountingEntryResponse{
		ID:            e.ID,
		EntryType:     e.EntryType,
		Amount:        e.Amount,
		Description:   e.Description,
		PaymentMethod: e.PaymentMethod,
		Category:      e.Category,
		EntryDate:     e.EntryDate,
	}
}
