package sqlinline

const QInsertRevenueEntry = `--sql 08ec612e-90e9-489b-85eb-115085b4ac24
insert into revenue_entries (id, user_id, entry_date, amount, note, created_at)
values (gen_random_uuid(), $1::uuid, $2::date, $3::numeric, $4::text, now())
returning id::text, user_id::text, to_char(entry_date, 'YYYY-MM-DD'), amount::text, note, created_at;
`

const QSelectRevenueEntry = `--sql e63dd154-ffe9-46f1-a23a-244c575c57df
select id::text, user_id::text, to_char(entry_date, 'YYYY-MM-DD'), amount::text, note, created_at
from revenue_entries
where id = $1::uuid;
`

const QDeleteRevenueEntry = `--sql 5c154336-75b3-4dd6-8e47-7547d9e610fe
delete from revenue_entries
where id = $1::uuid;
`

const QListRevenueEntries = `--sql 38e0cb12-c529-439c-bce8-ba0a3bbcd844
select id::text, user_id::text, to_char(entry_date, 'YYYY-MM-DD'), amount::text, note, created_at
from revenue_entries
where user_id = $1::uuid
  and entry_date between $2::date and $3::date
order by entry_date asc, created_at asc;
`

const QListAllRevenueEntries = `--sql 19e4f0be-66d9-4af9-90d6-41efa90e6f08
select id::text, user_id::text, to_char(entry_date, 'YYYY-MM-DD'), amount::text, note, created_at
from revenue_entries
order by entry_date asc, created_at asc;
`

const QUpsertExpectedRevenue = `--sql 4894328a-a9bb-4cb9-969d-21cfa5924d3f
insert into expected_revenues (user_id, year, month, amount, updated_at)
values ($1::uuid, $2::int, $3::int, $4::numeric, now())
on conflict (user_id, year, month) do update set
    amount = excluded.amount,
    updated_at = now()
returning user_id::text, year, month, amount::text, updated_at;
`

const QSelectExpectedRevenue = `--sql 6b9b07ec-7358-437d-b07f-c32458cdd3b6
select amount::text
from expected_revenues
where user_id = $1::uuid and year = $2::int and month = $3::int;
`

const QListExpectedRevenue = `--sql 481a3444-12a2-4b0e-9d74-e2aac3dca187
select user_id::text, amount::text
from expected_revenues
where year = $1::int and month = $2::int;
`
