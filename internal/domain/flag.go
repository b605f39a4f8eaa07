package domain

// FlagResult 是国旗落盘阶段的统计。
//
// Owners 记录别名关系：alias code -> owner code（同一 flagURL 只有 owner 持有实体文件）。
type FlagResult struct {
	Owners map[string]string

	Fetched   int // 下载的图片数（每个 flagURL 一次）
	Written   int // 实际写入的文件数（国旗 + 图标）
	Unchanged int // 内容相同而跳过写入的文件数
	Linked    int // 新建的符号链接数
	Skipped   int // 没有 code 而跳过的国家数
}
