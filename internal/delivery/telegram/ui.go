package telegram

import "gopkg.in/telebot.v3"

var (
	btnDetailJob           telebot.Btn = telebot.Btn{Unique: "btn_detail_job"}
	btnActionRunJob        telebot.Btn = telebot.Btn{Text: "▶️ Run now", Unique: "btn_action_run_job"}
	btnActionBackToJobList telebot.Btn = telebot.Btn{Text: "⬅️ Back", Unique: "btn_action_back_to_job_list"}
	btnDeleteMessage       telebot.Btn = telebot.Btn{Text: "🗑 Close", Unique: "btn_delete_message"}
)

const (
	commonErrorInternal = "Something went wrong on our side, please try again later."
	messageRateLimited  = "⏳ Too many requests, please slow down."
	messageUnknownText  = "I don't recognize that. Use /help to see the available commands."

	usageBacktest = "Usage: /backtest SYMBOL [short/long] [cost%] [rsi|norsi] [range] [exchange]\n" +
		"Example: /backtest BBCA 5/20 0.2% rsi 1y IDX"
	usageCompare = "Usage: /compare SYM1,SYM2,... [short/long] [cost%] [rsi|norsi] [range] [exchange]\n" +
		"Example: /compare NVDA,AAPL,MSFT 10/30 6m"
)

const messageStart = `👋 *Welcome to the backtest bot\!*

I replay a moving average crossover strategy with an optional RSI filter over historical prices and tell you how it would have done against buy and hold\.

/backtest \- backtest one symbol
/compare \- rank several symbols with the same parameters
/jobs \- scheduled jobs and manual runs
/help \- detailed usage`

const messageHelp = `❓ *How to use the bot*

*/backtest SYMBOL \[short/long\] \[cost%\] \[rsi\|norsi\] \[range\] \[exchange\]*
Backtests one symbol\. Windows default to 5 and 20, cost is per position change\.
Example: ` + "`/backtest BBCA 5/20 0.2% rsi 1y IDX`" + `

*/compare SYM1,SYM2,\.\.\. \[short/long\] \.\.\.*
Runs the same backtest over several symbols and ranks them by ROI\.
Example: ` + "`/compare NVDA,AAPL,MSFT 10/30 6m`" + `

Ranges: 1m, 3m, 6m, 1y, 2y, 5y\. Exchanges: IDX, NASDAQ, NYSE\.

📌 Past performance says nothing certain about the future\.`
