package types

import (
	"hypergate/pkg/pricetape"
	"hypergate/pkg/twap"
)

type HealthResp struct {
	Status      string `json:"status"`
	Network     string `json:"network"`
	Initialized bool   `json:"initialized"`
	Timestamp   int64  `json:"timestamp"`
}

type PricesResp struct {
	Prices    map[string]pricetape.PricePoint `json:"prices"`
	Network   string                          `json:"network"`
	Timestamp int64                           `json:"timestamp"`
}

type MarketEntry struct {
	Price      string `json:"price"`
	Timestamp  int64  `json:"timestamp"`
	SzDecimals int    `json:"szDecimals"`
	PxDecimals int    `json:"pxDecimals"`
	IsPerp     bool   `json:"isPerp"`
}

type MarketDataResp struct {
	Prices  map[string]MarketEntry `json:"prices"`
	Network string                 `json:"network"`
}

type AssetIDsResp struct {
	AssetIDs    map[string]int `json:"assetIds"`
	RefreshedAt int64          `json:"refreshedAt"`
	Network     string         `json:"network"`
}

type AddressReq struct {
	Address string `form:"address"`
}

type AddressPathReq struct {
	Address string `path:"address"`
}

type WalletBalanceResp struct {
	AccountValue    string `json:"accountValue"`
	TotalMarginUsed string `json:"totalMarginUsed"`
	TotalNtlPos     string `json:"totalNtlPos"`
	TotalRawUsd     string `json:"totalRawUsd"`
	Withdrawable    string `json:"withdrawable"`
}

// OrderReq is one order as posted by the UI. Either a single object or an
// array is accepted by /place-order.
type OrderReq struct {
	Symbol     string `json:"symbol"`
	Side       string `json:"side"`
	Size       string `json:"size"`
	Price      string `json:"price,optional"`
	ReduceOnly bool   `json:"reduceOnly,optional"`
	Tif        string `json:"tif,optional"`
	TriggerPx  string `json:"triggerPx,optional"`
	Tpsl       string `json:"tpsl,optional"`
	IsMarket   *bool  `json:"isMarket,optional"`
	Cloid      string `json:"cloid,optional"`
}

type TwapCreateReq struct {
	Symbol          string `json:"symbol"`
	Side            string `json:"side"`
	TotalSize       string `json:"totalSize"`
	DurationMinutes int    `json:"durationMinutes"`
	Intervals       int    `json:"intervals"`
	ReduceOnly      bool   `json:"reduceOnly,optional"`
}

type TwapCreateResp struct {
	Success bool          `json:"success"`
	TaskID  string        `json:"taskId"`
	Message string        `json:"message"`
	Task    twap.Snapshot `json:"task"`
}

type TwapTaskPathReq struct {
	ID string `path:"id"`
}

type TwapTaskResp struct {
	Task twap.Snapshot `json:"task"`
}

type TwapTasksResp struct {
	Tasks          []twap.Snapshot `json:"tasks"`
	TotalTasks     int             `json:"totalTasks"`
	ActiveTasks    int             `json:"activeTasks"`
	CompletedTasks int             `json:"completedTasks"`
	FailedTasks    int             `json:"failedTasks"`
	CancelledTasks int             `json:"cancelledTasks"`
}

type TwapCancelResp struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	TaskID  string `json:"taskId"`
}

type LeveragePosition struct {
	Coin         string `json:"coin"`
	Size         string `json:"szi"`
	EntryPx      string `json:"entryPx"`
	Leverage     int    `json:"leverage"`
	LeverageMode string `json:"leverageMode"`
	MarginUsed   string `json:"marginUsed"`
	MaxLeverage  int    `json:"maxLeverage"`
}

type LeverageStatusResp struct {
	Address   string             `json:"address"`
	Positions []LeveragePosition `json:"positions"`
	Summary   WalletBalanceResp  `json:"summary"`
}

type UpdateLeverageReq struct {
	Coin         string `json:"coin"`
	LeverageMode string `json:"leverageMode"`
	Leverage     int    `json:"leverage"`
}

type UpdateMarginReq struct {
	Coin  string `json:"coin"`
	IsBuy bool   `json:"isBuy,optional"`
	Ntli  int64  `json:"ntli"`
}

type CancelOrdersReq struct {
	Coin     string  `json:"coin"`
	OrderIDs []int64 `json:"orderIds"`
}

type SwitchNetworkReq struct {
	Network string `json:"network"`
}

type SwitchNetworkResp struct {
	Success bool   `json:"success"`
	Network string `json:"network"`
}

type LiquidationReq struct {
	Symbol              string  `json:"symbol"`
	Side                string  `json:"side"`
	EntryPrice          float64 `json:"entryPrice"`
	Leverage            float64 `json:"leverage"`
	MarginMode          string  `json:"marginMode,optional"`
	PositionSize        float64 `json:"positionSize,optional"`
	AccountValue        float64 `json:"accountValue,optional"`
	IsolatedMargin      float64 `json:"isolatedMargin,optional"`
	WalletBalance       float64 `json:"walletBalance,optional"`
	TransferRequirement float64 `json:"transferRequirement,optional"`
}

type LiquidationResp struct {
	LiquidationPrice string  `json:"liquidationPrice"`
	MaintenanceRate  float64 `json:"maintenanceRate"`
	Deduction        float64 `json:"deduction"`
	Iterations       int     `json:"iterations"`
	PositionSize     float64 `json:"positionSize"`
	AccountValue     float64 `json:"accountValue"`
}

type OkResp struct {
	Success bool        `json:"success"`
	Result  interface{} `json:"result,omitempty"`
}
