// Package archive 聚合各类压缩包的成员解出实现，并提供统一的注册入口。
//
// 新增格式需要：
//  1. 实现 Extractor 接口，把配置声明的成员解出到目标目录；
//  2. 在 init() 中通过 MustRegister 注册格式键；
//  3. 保证解出路径始终位于目标目录内，防止成员路径穿越。
//
// 配置校验通过 Resolve/Formats 查询注册表，格式键统一小写。
package archive
