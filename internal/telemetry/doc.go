// Package telemetry — логи и метрики modelproxy.
//
// Логгер настраивается из LOG_LEVEL и LOG_FORMAT и может ехать в context
// запроса вместе с request_id. Метрики регистрируются в реестре по умолчанию
// и отдаются каждым бинарником на /metrics.
package telemetry
