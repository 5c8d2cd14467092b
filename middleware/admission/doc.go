// Package admission monta o gate de admissão de eventos de um bot e o expõe
// como middleware (domain.Handler) e como webhook HTTP (net/http).
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos (eventos, veredictos, config, portas externas)
//   - application: casos de uso (pipeline, gate de assinatura, avisos efêmeros)
//   - infra: implementações concretas (janela deslizante, cooldown, Bot API, stats)
//   - admission (este pacote): wiring com defaults + adapter HTTP do webhook
//
// Fluxo por evento:
//
//  1. Extrai a identidade do usuário (sem identidade: passa direto)
//  2. Controle de taxa; se rejeitado, envia aviso efêmero e para
//  3. Gate de assinatura; se não membro, envia convite (com cooldown) e para
//  4. Chama o próximo handler
//
// Variáveis de ambiente do binário (cmd/gatebot) controlam os limites,
// como GATE_WINDOW, GATE_ADMIT_LIMIT, GATE_BLOCK_DURATION e GATE_PROMPT_COOLDOWN.
package admission
