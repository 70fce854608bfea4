package memory

import "github.com/jhoicas/marketplace-api/internal/domain/entity"

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func cloneMap[V any](m map[string]*V, f func(*V) *V) map[string]*V {
	out := make(map[string]*V, len(m))
	for k, v := range m {
		out[k] = f(v)
	}
	return out
}

func cloneShop(s *entity.Shop) *entity.Shop { return clonePtr(s) }

func cloneShopProduct(p *entity.ShopProduct) *entity.ShopProduct { return clonePtr(p) }

func cloneShift(s *entity.Shift) *entity.Shift {
	c := *s
	c.ClosedBy = clonePtr(s.ClosedBy)
	c.ClosedAt = clonePtr(s.ClosedAt)
	c.Events = append([]entity.ShiftEvent(nil), s.Events...)
	return &c
}

func cloneWriteOff(d *entity.WriteOff) *entity.WriteOff {
	c := *d
	c.Items = append([]entity.WriteOffItem(nil), d.Items...)
	c.ConfirmedBy = clonePtr(d.ConfirmedBy)
	c.ConfirmedAt = clonePtr(d.ConfirmedAt)
	return &c
}

func cloneReceiving(d *entity.Receiving) *entity.Receiving {
	c := *d
	c.Items = append([]entity.ReceivingItem(nil), d.Items...)
	c.ConfirmedBy = clonePtr(d.ConfirmedBy)
	c.ConfirmedAt = clonePtr(d.ConfirmedAt)
	return &c
}

func cloneTransfer(d *entity.Transfer) *entity.Transfer {
	c := *d
	c.Items = append([]entity.TransferItem(nil), d.Items...)
	c.SentBy = clonePtr(d.SentBy)
	c.ReceivedBy = clonePtr(d.ReceivedBy)
	c.SentAt = clonePtr(d.SentAt)
	c.ReceivedAt = clonePtr(d.ReceivedAt)
	return &c
}

func cloneAudit(d *entity.InventoryAudit) *entity.InventoryAudit {
	c := *d
	c.Items = append([]entity.AuditItem(nil), d.Items...)
	c.CompletedBy = clonePtr(d.CompletedBy)
	c.CompletedAt = clonePtr(d.CompletedAt)
	return &c
}

func cloneCart(c *entity.Cart) *entity.Cart {
	out := *c
	out.Items = append([]entity.CartItem(nil), c.Items...)
	return &out
}

func cloneOrder(o *entity.Order) *entity.Order {
	c := *o
	c.Items = append([]entity.OrderItem(nil), o.Items...)
	c.Rating = clonePtr(o.Rating)
	c.AcceptedAt = clonePtr(o.AcceptedAt)
	c.AssembledAt = clonePtr(o.AssembledAt)
	c.HandedToCourierAt = clonePtr(o.HandedToCourierAt)
	c.DeliveredAt = clonePtr(o.DeliveredAt)
	c.ClosedAt = clonePtr(o.ClosedAt)
	return &c
}

func clonePeriod(p *entity.SettlementPeriod) *entity.SettlementPeriod {
	c := *p
	c.ClosedAt = clonePtr(p.ClosedAt)
	c.ReleasedAt = clonePtr(p.ReleasedAt)
	c.ApprovedBy = clonePtr(p.ApprovedBy)
	return &c
}

func cloneWithdrawal(w *entity.Withdrawal) *entity.Withdrawal {
	c := *w
	c.ProcessedBy = clonePtr(w.ProcessedBy)
	c.ProcessedAt = clonePtr(w.ProcessedAt)
	return &c
}
