package models

// GlobalStats агрегат, возвращаемый сервисом статистики SDK.
// Earnings приходит строкой вида "$300.00".
type GlobalStats struct {
	Earnings      string `json:"earnings"`
	RequestsTotal int64  `json:"requestsTotal"`
}

// HelpTasks состояние заданий "поделиться" и "оценить" в локальном хранилище.
type HelpTasks struct {
	Shared      bool         `json:"shared"`
	Rated       bool         `json:"rated"`
	RateHistory []RateRecord `json:"rateHistory,omitempty"`
}

// RateRecord одна отметка об оценке расширения.
type RateRecord struct {
	URL string `json:"url,omitempty"`
	At  string `json:"at"`
}
