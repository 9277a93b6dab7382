// Package bridge 实现 TMU 串口到 MQTT 的桥接主循环。
//
// 每个周期（tick）依次处理全部设备：读串口、按回车切帧、校验解析、发布。
// Broker 连接状态由 Supervisor 维护，连接异常时主循环只做重连，
// 直到收到成功的连接回调。
package bridge
