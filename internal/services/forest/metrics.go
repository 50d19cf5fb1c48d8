// Package forest вычисляет производные показатели леса: сколько деревьев
// посажено на общий заработок сети и какую долю дерева вырастил пользователь.
package forest

import "math"

// Константы пересчёта.
const (
	CostPerTree  = 0.30 // долларов на одно дерево
	CO2PerTree   = 28.5 // кг CO2 на одно дерево
	SeedsPerTree = 100
)

// Input исходные данные для расчёта.
type Input struct {
	GlobalEarnings float64 // общий заработок сети в долларах
	GlobalRequests int64   // общее число запросов сети
	UserRequests   int64   // счётчик запросов пользователя
}

// Metrics результат расчёта.
type Metrics struct {
	TotalTrees       int64   `json:"total_trees"`
	UserShare        float64 `json:"user_share"`
	UserProgress     float64 `json:"user_progress"`
	DisplayProgress  float64 `json:"display_progress"`
	UserEarnings     float64 `json:"user_earnings"`
	IsMinimumTree    bool    `json:"is_minimum_tree"`
	TotalCO2Saved    float64 `json:"total_co2_saved"`
	PersonalCO2Saved float64 `json:"personal_co2_saved"`
	Seeds            int64   `json:"seeds"`
}

// Compute рассчитывает показатели. Функция чистая.
func Compute(in Input) Metrics {
	calculated := int64(math.Floor(in.GlobalEarnings / CostPerTree))
	totalTrees := max(1, calculated)

	var userShare float64
	if in.GlobalRequests > 0 {
		userShare = float64(in.UserRequests) / float64(in.GlobalRequests) * in.GlobalEarnings
	}
	userProgress := userShare / CostPerTree

	display := userProgress
	if calculated == 0 {
		display = in.GlobalEarnings / CostPerTree
	}
	display = math.Max(0.01, display)

	return Metrics{
		TotalTrees:       totalTrees,
		UserShare:        userShare,
		UserProgress:     userProgress,
		DisplayProgress:  display,
		UserEarnings:     math.Round(display*CostPerTree*100) / 100,
		IsMinimumTree:    calculated == 0,
		TotalCO2Saved:    float64(totalTrees) * CO2PerTree,
		PersonalCO2Saved: userProgress * CO2PerTree,
		Seeds:            int64(math.Floor(userProgress * SeedsPerTree)),
	}
}

// ReferralsPerTree сколько приглашений дают одно дерево.
const ReferralsPerTree = 3

// ReferralProgress возвращает число деревьев за приглашения и прогресс к следующему.
func ReferralProgress(totalReferrals int) (trees, progress int) {
	if totalReferrals <= 0 {
		return 0, 0
	}
	return totalReferrals / ReferralsPerTree, totalReferrals % ReferralsPerTree
}
