package options

// OutputOptions 定义结果导出参数
type OutputOptions struct {
	OutputJson string // --output-json
	OutputCsv  string // --output-csv
}

// Enabled 是否需要记录逐次探测结果
func (o *OutputOptions) Enabled() bool {
	return o.OutputJson != "" || o.OutputCsv != ""
}
