// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - WindowStore: janela deslizante + bloqueio por usuário (controle de taxa)
//   - PromptStore: cooldown dos convites de assinatura
//   - BotClient / ChannelProbe: transporte Bot API e verificação de membro de canal
//   - BreakerProbe: circuit breaker (sony/gobreaker) em volta de um probe
//   - MemoryStatsStore, RedisStatsStore, PrometheusStats: estatísticas de decisão
package infra
