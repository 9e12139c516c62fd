// Package commands 模擬器的命令列入口: serve 啟動服務，seed 輸出初始資料，journal 讀取稽核紀錄
package commands
