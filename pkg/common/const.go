package common

const (
	KEY_PRICE_HISTORY = "price_history:%s:%s"
)

const (
	EXCHANGE_IDX    = "IDX"
	EXCHANGE_NASDAQ = "NASDAQ"
	EXCHANGE_NYSE   = "NYSE"
)

func GetExchangeList() []string {
	return []string{
		EXCHANGE_IDX,
		EXCHANGE_NASDAQ,
		EXCHANGE_NYSE,
	}
}

const (
	RANGE_1M = "1m"
	RANGE_3M = "3m"
	RANGE_6M = "6m"
	RANGE_1Y = "1y"
	RANGE_2Y = "2y"
	RANGE_5Y = "5y"
)

func GetRangeList() []string {
	return []string{RANGE_1M, RANGE_3M, RANGE_6M, RANGE_1Y, RANGE_2Y, RANGE_5Y}
}

const (
	SOURCE_YAHOO = "yahoo"
	SOURCE_CSV   = "csv"
)
