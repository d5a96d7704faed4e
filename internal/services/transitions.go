package services

import "depot-backend/internal/models"

// CanApprove checks an order can be handed to the warehouse
func CanApprove(orderStatus string) error {
	if orderStatus != models.OrderPending {
		return transition("order is %s, only pending orders can be approved", orderStatus)
	}
	return nil
}

// CanMarkReady checks a warehouse order can be dispatched
func CanMarkReady(warehouseStatus string) error {
	if warehouseStatus != models.WarehousePending {
		return transition("warehouse order is %s, only pending orders can be marked ready", warehouseStatus)
	}
	return nil
}

// CanCancel checks the pair of statuses allows cancellation. warehouseStatus
// is empty when the order has not been approved yet.
func CanCancel(orderStatus, warehouseStatus string) error {
	switch orderStatus {
	case models.OrderPending:
		return nil
	case models.OrderApproved:
		if warehouseStatus == models.WarehousePending {
			return nil
		}
		if warehouseStatus == models.WarehouseReady {
			return transition("order has already been dispatched")
		}
		return transition("warehouse order is %s", warehouseStatus)
	default:
		return transition("order is already %s", orderStatus)
	}
}
